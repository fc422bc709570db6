package syncqueue

import (
	"fmt"
	"time"

	"offer-calculator/internal/config"
	"offer-calculator/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Scheduler runs daily queue maintenance: entries stuck in processing
// (worker crashed mid-push) go back to pending, and completed entries
// older than the retention window are purged.
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	config    *config.SyncConfig
	isRunning bool
	log       *logrus.Logger
}

const doneRetention = 30 * 24 * time.Hour

// NewScheduler creates the maintenance scheduler.
func NewScheduler(db *gorm.DB, cfg *config.SyncConfig, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		config: cfg,
		log:    log,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if !s.config.DailyRunEnabled {
		s.log.Info("[scheduler] Daily maintenance is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		s.log.Info("[scheduler] Starting daily queue maintenance...")
		if err := s.runMaintenance(); err != nil {
			s.log.Errorf("[scheduler] Daily maintenance failed: %v", err)
		} else {
			s.log.Info("[scheduler] Daily maintenance completed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.log.Infof("[scheduler] Started with daily run at %s (cron: %s)", s.config.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		s.log.Info("[scheduler] Stopped")
	}
}

func (s *Scheduler) runMaintenance() error {
	// Entries stuck in processing for over an hour are orphans from a
	// crashed worker; put them back in line.
	staleBefore := time.Now().Add(-1 * time.Hour)
	result := s.db.Model(&models.SyncRetry{}).
		Where("status = ? AND updated_at < ?", models.SyncStatusProcessing, staleBefore).
		Updates(map[string]interface{}{
			"status":        models.SyncStatusPending,
			"next_retry_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		s.log.Infof("[scheduler] Reset %d stale processing entries to pending", result.RowsAffected)
	}

	// Purge completed entries past retention.
	purgeBefore := time.Now().Add(-doneRetention)
	result = s.db.Where("status = ? AND completed_at < ?", models.SyncStatusDone, purgeBefore).
		Delete(&models.SyncRetry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		s.log.Infof("[scheduler] Purged %d completed entries", result.RowsAffected)
	}

	return nil
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	s.log.Warnf("[scheduler] Warning: failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
