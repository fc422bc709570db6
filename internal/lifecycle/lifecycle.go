package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"offer-calculator/internal/crm"
	"offer-calculator/internal/models"
	"offer-calculator/internal/notify"
	"offer-calculator/internal/pricing"
	"offer-calculator/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBusy means a generation is already in flight for this session.
	ErrBusy = errors.New("lifecycle: generation already in progress")
	// ErrNotReady means the session lacks a computable property for the
	// active strategy. Callers treat this as an inert trigger, not a
	// failure.
	ErrNotReady = errors.New("lifecycle: inputs not ready")
	// ErrNoPreview means save or discard ran without a generated offer.
	ErrNoPreview = errors.New("lifecycle: no offer to act on")
)

// OfferSyncer pushes a computed offer amount into the CRM record.
type OfferSyncer interface {
	Configured() bool
	PushOfferAmount(ctx context.Context, opportunityID string, amount float64) error
}

// SyncRecorder queues a failed CRM push for background retry. Optional;
// deployments without a retry queue pass nil.
type SyncRecorder interface {
	Enqueue(opportunityID string, amount float64) error
}

// Lifecycle drives one offer-building session: generate a preview,
// sync it to the CRM when the property came from there, then save or
// discard.
type Lifecycle struct {
	session  *Session
	engine   *pricing.Engine
	syncer   OfferSyncer
	retry    crm.RetryPolicy
	recorder SyncRecorder
	store    *store.OfferStore
	notify   notify.Notifier
	now      func() time.Time
	log      *logrus.Logger
}

// New wires the lifecycle. recorder may be nil.
func New(session *Session, engine *pricing.Engine, syncer OfferSyncer, retry crm.RetryPolicy,
	recorder SyncRecorder, offerStore *store.OfferStore, notifier notify.Notifier, log *logrus.Logger) *Lifecycle {
	return &Lifecycle{
		session:  session,
		engine:   engine,
		syncer:   syncer,
		retry:    retry,
		recorder: recorder,
		store:    offerStore,
		notify:   notifier,
		now:      time.Now,
		log:      log,
	}
}

// Generate computes a preview offer for the current session state.
// Returns ErrNotReady when inputs are incomplete and ErrBusy when a
// generation is already running. A failed CRM sync never fails the
// preview; it surfaces one warning notification and queues a retry.
func (l *Lifecycle) Generate(ctx context.Context) (*models.Offer, error) {
	strategy, mode, selected, notes, manualDown := l.session.snapshot()

	if !pricing.CanCompute(strategy, mode, selected) {
		return nil, ErrNotReady
	}

	if !l.session.beginProcessing() {
		return nil, ErrBusy
	}
	defer l.session.endProcessing()

	comp := l.engine.Compute(strategy, *selected, pricing.Overrides{ManualDownPayment: manualDown})
	offer := l.buildPreview(comp, *selected, notes)

	if selected.FromCRM() {
		l.syncToCRM(ctx, selected.ID, comp.OfferAmount)
	}

	l.session.setCurrent(offer)
	preview := *offer
	return &preview, nil
}

func (l *Lifecycle) buildPreview(comp pricing.Computation, p models.Property, notes string) *models.Offer {
	// CRM-selected properties carry the opportunity name; use it as the
	// note when the user wrote none so the offer stays findable by name.
	if notes == "" {
		notes = p.Name
	}
	offer := &models.Offer{
		ID:          "preview-" + uuid.NewString(),
		Address:     p.Address,
		ARV:         p.ARV,
		Repairs:     p.Repairs,
		Notes:       notes,
		OfferAmount: comp.OfferAmount,
		OfferType:   comp.Strategy,
		CreatedAt:   l.now(),
		Status:      models.OfferStatusPending,
	}
	if p.AsIsValue != nil {
		v := *p.AsIsValue
		offer.AsIsValue = &v
	}
	if comp.Cash != nil {
		down := comp.Cash.DownPayment
		offer.DownPayment = &down
	}
	if comp.Creative != nil {
		down := comp.Creative.DownPayment
		price := comp.Creative.Price
		monthly := comp.Creative.MonthlyPayment
		term := comp.Creative.TermMonths
		pct := comp.Creative.ArvPctUsed
		offer.DownPayment = &down
		offer.Price = &price
		offer.MonthlyPayment = &monthly
		offer.LongLengthInMonths = &term
		offer.ArvPctUsed = &pct
	}
	return offer
}

// syncToCRM pushes the amount with bounded retries. Exhaustion is
// non-fatal: the user sees one warning and the push is queued for the
// background worker when one is configured.
func (l *Lifecycle) syncToCRM(ctx context.Context, opportunityID string, amount float64) {
	if !l.syncer.Configured() {
		l.log.Warn("[lifecycle] Warning: CRM not configured, skipping offer sync")
		return
	}

	err := l.retry.Do(ctx, "crm offer sync", func(ctx context.Context) error {
		return l.syncer.PushOfferAmount(ctx, opportunityID, amount)
	})
	if err == nil {
		return
	}

	l.log.Warnf("[lifecycle] Warning: CRM sync failed for opportunity %s: %v", opportunityID, err)
	l.notify.Push(notify.LevelWarning, "Offer generated, but syncing to the CRM failed. It will be retried in the background.")

	if l.recorder != nil {
		if qerr := l.recorder.Enqueue(opportunityID, amount); qerr != nil {
			l.log.Errorf("[lifecycle] failed to queue CRM sync retry: %v", qerr)
		}
	}
}

// Save persists the current preview as a new offer with a fresh id and
// clears the preview. Saving the same preview twice is impossible.
func (l *Lifecycle) Save() (*models.Offer, error) {
	preview := l.session.Current()
	if preview == nil {
		return nil, ErrNoPreview
	}

	saved := *preview
	saved.ID = uuid.NewString()
	saved.CreatedAt = l.now()
	saved.Status = models.OfferStatusActive

	if err := l.store.Append(saved); err != nil {
		return nil, fmt.Errorf("save offer: %w", err)
	}

	l.session.setCurrent(nil)
	l.notify.Push(notify.LevelSuccess, "Offer saved to history.")
	return &saved, nil
}

// Discard drops the current preview without persisting it.
func (l *Lifecycle) Discard() error {
	if l.session.Current() == nil {
		return ErrNoPreview
	}
	l.session.setCurrent(nil)
	return nil
}

// Session exposes the state container for the HTTP layer.
func (l *Lifecycle) Session() *Session {
	return l.session
}
