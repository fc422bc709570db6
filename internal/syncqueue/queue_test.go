package syncqueue

import (
	"testing"
	"time"

	"offer-calculator/internal/models"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestNextSyncRetryDelaySchedule(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 5 * time.Minute},
		{1, 15 * time.Minute},
		{2, time.Hour},
		{3, 4 * time.Hour},
		{4, 12 * time.Hour},
		{5, 12 * time.Hour},  // capped
		{10, 12 * time.Hour}, // stays capped
	}

	for _, tt := range tests {
		if got := models.NextSyncRetryDelay(tt.attempts); got != tt.want {
			t.Errorf("NextSyncRetryDelay(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestParseDailyRunTime(t *testing.T) {
	s := &Scheduler{log: testLogger()}

	tests := []struct {
		in   string
		want string
	}{
		{"02:00", "0 2 * * *"},
		{"14:30", "30 14 * * *"},
		{"0:5", "5 0 * * *"},
		{"garbage", "0 2 * * *"},
		{"", "0 2 * * *"},
	}

	for _, tt := range tests {
		if got := s.parseDailyRunTime(tt.in); got != tt.want {
			t.Errorf("parseDailyRunTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
