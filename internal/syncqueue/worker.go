package syncqueue

import (
	"context"
	"fmt"
	"time"

	"offer-calculator/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OpportunityUpdater is the slice of the CRM client the worker needs.
type OpportunityUpdater interface {
	UpdateOpportunityField(ctx context.Context, opportunityID, customFieldID string, value float64) error
}

// Worker drains the sync retry queue on a polling loop, re-attempting
// failed CRM offer pushes with a long backoff schedule.
type Worker struct {
	db           *gorm.DB
	crm          OpportunityUpdater
	stopChan     chan struct{}
	isRunning    bool
	pollInterval time.Duration
	log          *logrus.Logger
}

// NewWorker creates a worker polling the queue at the given interval.
func NewWorker(db *gorm.DB, crm OpportunityUpdater, pollInterval time.Duration, log *logrus.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Worker{
		db:           db,
		crm:          crm,
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
		log:          log,
	}
}

// Start launches the polling loop.
func (w *Worker) Start() {
	if w.isRunning {
		w.log.Info("[syncqueue] Worker already running")
		return
	}

	w.isRunning = true
	w.log.Infof("[syncqueue] Worker started (poll_interval=%v)", w.pollInterval)

	go w.run()
}

// Stop signals the polling loop to exit.
func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	w.log.Info("[syncqueue] Worker stopping...")
	w.isRunning = false
	close(w.stopChan)
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.log.Info("[syncqueue] Worker stopped")
			return
		case <-ticker.C:
			w.processNext()
		}
	}
}

// processNext picks one queue entry and re-attempts its push. Pending
// entries go first; failed entries wait for their retry time.
func (w *Worker) processNext() {
	var entry models.SyncRetry
	now := time.Now()

	result := w.db.Where("status = ?", models.SyncStatusPending).
		Order("created_at ASC").
		First(&entry)

	if result.Error == gorm.ErrRecordNotFound {
		result = w.db.Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			models.SyncStatusFailed, now).
			Order("created_at ASC").
			First(&entry)
	}

	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			w.log.Errorf("[syncqueue] Error fetching next entry: %v", result.Error)
		}
		return
	}

	w.processEntry(&entry)
}

func (w *Worker) processEntry(entry *models.SyncRetry) {
	w.log.Infof("[syncqueue] Processing id=%d opportunity=%s attempt=%d",
		entry.ID, entry.OpportunityID, entry.Attempts+1)

	entry.Status = models.SyncStatusProcessing
	entry.Attempts++
	if err := w.db.Save(entry).Error; err != nil {
		w.log.Errorf("[syncqueue] Failed to mark entry as processing: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := w.crm.UpdateOpportunityField(ctx, entry.OpportunityID, entry.CustomFieldID, entry.FieldValue)
	if err != nil {
		w.handlePushError(entry, err)
		return
	}

	entry.Status = models.SyncStatusDone
	entry.LastError = ""
	completedAt := time.Now()
	entry.CompletedAt = &completedAt
	entry.NextRetryAt = nil

	if err := w.db.Save(entry).Error; err != nil {
		w.log.Errorf("[syncqueue] Failed to mark entry as done: %v", err)
	} else {
		w.log.Infof("[syncqueue] Completed id=%d opportunity=%s", entry.ID, entry.OpportunityID)
	}
}

func (w *Worker) handlePushError(entry *models.SyncRetry, err error) {
	w.log.Warnf("[syncqueue] Warning: push failed for id=%d: %v", entry.ID, err)

	if entry.Attempts >= models.MaxSyncRetryAttempts {
		entry.Status = models.SyncStatusFailed
		entry.LastError = fmt.Sprintf("Max retries exceeded (%d): %s", entry.Attempts, err.Error())
		completedAt := time.Now()
		entry.CompletedAt = &completedAt
		entry.NextRetryAt = nil
		w.log.Warnf("[syncqueue] Warning: giving up on id=%d after %d attempts", entry.ID, entry.Attempts)
	} else {
		delay := models.NextSyncRetryDelay(entry.Attempts - 1)
		nextRetry := time.Now().Add(delay)
		entry.Status = models.SyncStatusFailed
		entry.LastError = err.Error()
		entry.NextRetryAt = &nextRetry
		w.log.Infof("[syncqueue] Scheduling retry for id=%d in %v (attempt %d/%d)",
			entry.ID, delay, entry.Attempts, models.MaxSyncRetryAttempts)
	}

	if err := w.db.Save(entry).Error; err != nil {
		w.log.Errorf("[syncqueue] Failed to save retry status: %v", err)
	}
}

// IsRunning reports whether the polling loop is active.
func (w *Worker) IsRunning() bool {
	return w.isRunning
}
