package property

import (
	"context"
	"sync"
	"time"

	"offer-calculator/internal/models"
)

// DebouncedSearch coalesces rapid query changes so only the last query
// in a burst hits the CRM, after a fixed quiet period.
type DebouncedSearch struct {
	src     *Source
	delay   time.Duration
	onReady func(query string, results []models.Property)

	mu    sync.Mutex
	timer *time.Timer
}

// Debounced wraps the source in a debouncer. Results are delivered to
// the callback on the timer goroutine.
func (s *Source) Debounced(delay time.Duration, onReady func(query string, results []models.Property)) *DebouncedSearch {
	return &DebouncedSearch{
		src:     s,
		delay:   delay,
		onReady: onReady,
	}
}

// SetQuery records a new query, restarting the quiet-period timer.
// Queries below the minimum length fire immediately with no results so
// stale suggestions clear as the user deletes text.
func (d *DebouncedSearch) SetQuery(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	if len([]rune(query)) < d.src.minQueryLength {
		d.timer = nil
		go d.onReady(query, nil)
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		results := d.src.Search(context.Background(), query)
		d.onReady(query, results)
	})
}

// Stop cancels any pending lookup.
func (d *DebouncedSearch) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
