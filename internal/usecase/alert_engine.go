package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
	domsvc "InvestAgent/internal/domain/service"
	applogger "InvestAgent/pkg/logger"
)

// CooldownGuard suppresses repeated notifications for a firing rule.
type CooldownGuard interface {
	// TryAcquire returns true when the rule may notify; it then blocks the
	// rule for d.
	TryAcquire(ctx context.Context, ruleID string, d time.Duration) bool
}

// AlertEngine evaluates alert rules against the live tick flow and fans
// fired events out to notification channels.
type AlertEngine struct {
	store     domrepo.AlertStore
	notifiers map[string]domsvc.Notifier
	guard     CooldownGuard
	metrics   domrepo.Metrics
	logger    *applogger.Logger

	refreshEvery time.Duration

	mu    sync.RWMutex
	rules []*models.AlertRule
	refs  map[string]*windowRef // rule id -> pct_change reference

	stopCh   chan struct{}
	stopOnce sync.Once
}

type windowRef struct {
	price float64
	at    time.Time
}

// NewAlertEngine creates the engine. Notifiers are keyed by channel name.
func NewAlertEngine(store domrepo.AlertStore, notifiers []domsvc.Notifier, guard CooldownGuard, metrics domrepo.Metrics, logger *applogger.Logger) *AlertEngine {
	byChannel := make(map[string]domsvc.Notifier, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
	}
	return &AlertEngine{
		store:        store,
		notifiers:    byChannel,
		guard:        guard,
		metrics:      metrics,
		logger:       logger,
		refreshEvery: 15 * time.Second,
		refs:         make(map[string]*windowRef),
		stopCh:       make(chan struct{}),
	}
}

// Start loads rules and begins periodic refresh.
func (e *AlertEngine) Start(ctx context.Context) error {
	if err := e.refresh(ctx); err != nil {
		return fmt.Errorf("alert engine initial load: %w", err)
	}
	go func() {
		ticker := time.NewTicker(e.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-e.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.refresh(ctx); err != nil && e.logger != nil {
					e.logger.Warn("alert rules refresh failed", applogger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop halts the refresh loop.
func (e *AlertEngine) Stop() { e.stopOnce.Do(func() { close(e.stopCh) }) }

func (e *AlertEngine) refresh(ctx context.Context) error {
	rules, err := e.store.List(ctx)
	if err != nil {
		return err
	}
	enabled := rules[:0]
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	e.mu.Lock()
	e.rules = enabled
	e.mu.Unlock()
	return nil
}

// OnTick evaluates all rules against the tick. Intended to run as a
// pipeline tap; evaluation is cheap, notification is dispatched async.
func (e *AlertEngine) OnTick(t *models.Tick) {
	if t == nil {
		return
	}
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	now := time.Unix(t.Timestamp, 0)
	for _, r := range rules {
		if r.Symbol != t.Symbol {
			continue
		}
		ev, fired := e.evaluate(r, t, now)
		if !fired {
			continue
		}
		go e.dispatch(context.Background(), r, ev)
	}
}

func (e *AlertEngine) evaluate(r *models.AlertRule, t *models.Tick, now time.Time) (*models.AlertEvent, bool) {
	switch r.Condition {
	case models.AlertPriceAbove:
		if t.Price > r.Threshold {
			return e.event(r, t, 0, 0), true
		}
	case models.AlertPriceBelow:
		if t.Price < r.Threshold {
			return e.event(r, t, 0, 0), true
		}
	case models.AlertPctChange:
		ref := e.reference(r.ID, t.Price, now, r.Window)
		if ref.price <= 0 {
			return nil, false
		}
		change := (t.Price - ref.price) / ref.price * 100
		if change >= r.Threshold || change <= -r.Threshold {
			return e.event(r, t, ref.price, change), true
		}
	}
	return nil, false
}

// reference returns the pct_change window-open price, resetting it when the
// window has elapsed.
func (e *AlertEngine) reference(ruleID string, price float64, now time.Time, window time.Duration) *windowRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, ok := e.refs[ruleID]
	if !ok || now.Sub(ref.at) >= window {
		ref = &windowRef{price: price, at: now}
		e.refs[ruleID] = ref
	}
	return ref
}

func (e *AlertEngine) event(r *models.AlertRule, t *models.Tick, reference, change float64) *models.AlertEvent {
	return &models.AlertEvent{
		RuleID:    r.ID,
		Symbol:    t.Symbol,
		Condition: r.Condition,
		Threshold: r.Threshold,
		Price:     t.Price,
		Reference: reference,
		Change:    change,
		FiredAt:   time.Now(),
	}
}

func (e *AlertEngine) dispatch(ctx context.Context, r *models.AlertRule, ev *models.AlertEvent) {
	cooldown := r.Cooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	if e.guard != nil && !e.guard.TryAcquire(ctx, r.ID, cooldown) {
		return
	}

	if e.metrics != nil {
		e.metrics.RecordAlertFired(ev.Symbol, ev.Condition)
	}
	for _, ch := range r.Channels {
		n, ok := e.notifiers[ch]
		if !ok {
			if e.logger != nil {
				e.logger.Warn("no notifier for channel", applogger.String("channel", ch))
			}
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			if e.metrics != nil {
				e.metrics.RecordError("alert_notify_" + ch)
			}
			if e.logger != nil {
				e.logger.Warn("alert notify failed",
					applogger.String("channel", ch),
					applogger.String("rule", r.ID),
					applogger.Error(err))
			}
		}
	}
}
