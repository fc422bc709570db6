package notify

import (
	"sync"
	"time"
)

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is a transient message surfaced to the client, such as a
// save confirmation or a CRM sync warning.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier receives user-facing messages from the offer lifecycle.
type Notifier interface {
	Push(level Level, message string)
}

// Feed is a bounded in-memory notification queue drained by the client
// on each poll. Oldest entries are dropped when the feed is full.
type Feed struct {
	mu      sync.Mutex
	items   []Notification
	maxSize int
	now     func() time.Time
}

// NewFeed creates a feed holding at most maxSize pending notifications.
func NewFeed(maxSize int) *Feed {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Feed{maxSize: maxSize, now: time.Now}
}

func (f *Feed) Push(level Level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, Notification{
		Level:     level,
		Message:   message,
		CreatedAt: f.now(),
	})
	if len(f.items) > f.maxSize {
		f.items = f.items[len(f.items)-f.maxSize:]
	}
}

// Drain returns all pending notifications and empties the feed.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil
	return out
}

// Pending returns the number of queued notifications.
func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
