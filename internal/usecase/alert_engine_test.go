package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
)

type stubAlertStore struct {
	mu    sync.Mutex
	rules []*models.AlertRule
}

func (s *stubAlertStore) Save(_ context.Context, r *models.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

func (s *stubAlertStore) Get(_ context.Context, id string) (*models.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubAlertStore) List(_ context.Context) ([]*models.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AlertRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *stubAlertStore) Delete(_ context.Context, _ string) error { return nil }

type captureNotifier struct {
	ch chan *models.AlertEvent
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan *models.AlertEvent, 16)}
}

func (n *captureNotifier) Channel() string { return models.ChannelKafka }

func (n *captureNotifier) Notify(_ context.Context, ev *models.AlertEvent) error {
	n.ch <- ev
	return nil
}

func (n *captureNotifier) wait(t *testing.T) *models.AlertEvent {
	t.Helper()
	select {
	case ev := <-n.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no alert event received")
		return nil
	}
}

func (n *captureNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-n.ch:
		t.Fatalf("unexpected alert event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordMessageSent(string, string) {}
func (noopMetrics) RecordError(string)               {}
func (noopMetrics) RecordLastPrice(string, float64)  {}
func (noopMetrics) RecordLatency(string, float64)    {}
func (noopMetrics) RecordTokens(string, int, int)    {}
func (noopMetrics) RecordAlertFired(string, string)  {}

// singleShotGuard allows the first acquisition per rule and blocks the rest.
type singleShotGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *singleShotGuard) TryAcquire(_ context.Context, ruleID string, _ time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[ruleID] {
		return false
	}
	g.seen[ruleID] = true
	return true
}

func TestAlertEnginePriceAboveFires(t *testing.T) {
	store := &stubAlertStore{rules: []*models.AlertRule{{
		ID:        "r1",
		Symbol:    "AAPL",
		Condition: models.AlertPriceAbove,
		Threshold: 100,
		Channels:  []string{models.ChannelKafka},
		Enabled:   true,
	}}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, nil, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 101, Timestamp: 1700000000})
	ev := n.wait(t)
	if ev.RuleID != "r1" || ev.Price != 101 || ev.Condition != models.AlertPriceAbove {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// At or below the threshold nothing fires.
	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 100, Timestamp: 1700000001})
	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 95, Timestamp: 1700000002})
	n.expectNone(t)
}

func TestAlertEnginePriceBelowIgnoresOtherSymbols(t *testing.T) {
	store := &stubAlertStore{rules: []*models.AlertRule{{
		ID:        "r1",
		Symbol:    "MSFT",
		Condition: models.AlertPriceBelow,
		Threshold: 300,
		Channels:  []string{models.ChannelKafka},
		Enabled:   true,
	}}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, nil, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 1, Timestamp: 1700000000})
	n.expectNone(t)

	e.OnTick(&models.Tick{Symbol: "MSFT", Price: 299, Timestamp: 1700000001})
	if ev := n.wait(t); ev.Symbol != "MSFT" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestAlertEngineFiresForRuleCreatedWithLowerCaseSymbol(t *testing.T) {
	rule := &models.AlertRule{
		ID:        "r1",
		Symbol:    "btcusdt",
		Condition: models.AlertPriceAbove,
		Threshold: 10,
		Channels:  []string{models.ChannelKafka},
		Enabled:   true,
	}
	// Validate canonicalizes the symbol before the rule is persisted.
	if err := rule.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	store := &stubAlertStore{rules: []*models.AlertRule{rule}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, nil, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	e.OnTick(&models.Tick{Symbol: "BTCUSDT", Price: 100, Timestamp: 1700000000})
	if ev := n.wait(t); ev.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestAlertEngineSkipsDisabledRules(t *testing.T) {
	store := &stubAlertStore{rules: []*models.AlertRule{{
		ID:        "r1",
		Symbol:    "AAPL",
		Condition: models.AlertPriceAbove,
		Threshold: 100,
		Channels:  []string{models.ChannelKafka},
		Enabled:   false,
	}}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, nil, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 500, Timestamp: 1700000000})
	n.expectNone(t)
}

func TestAlertEngineCooldownSuppressesRepeats(t *testing.T) {
	store := &stubAlertStore{rules: []*models.AlertRule{{
		ID:        "r1",
		Symbol:    "AAPL",
		Condition: models.AlertPriceAbove,
		Threshold: 100,
		Channels:  []string{models.ChannelKafka},
		Cooldown:  time.Minute,
		Enabled:   true,
	}}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, &singleShotGuard{}, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 101, Timestamp: 1700000000})
	n.wait(t)

	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 102, Timestamp: 1700000001})
	e.OnTick(&models.Tick{Symbol: "AAPL", Price: 103, Timestamp: 1700000002})
	n.expectNone(t)
}

func TestAlertEnginePctChangeWindowReference(t *testing.T) {
	store := &stubAlertStore{rules: []*models.AlertRule{{
		ID:        "r1",
		Symbol:    "BTC",
		Condition: models.AlertPctChange,
		Threshold: 5,
		Window:    time.Minute,
		Channels:  []string{models.ChannelKafka},
		Enabled:   true,
	}}}
	n := newCaptureNotifier()
	e := NewAlertEngine(store, []domsvc.Notifier{n}, nil, noopMetrics{}, nil)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer e.Stop()

	base := int64(1700000000)

	// First tick opens the window; change is zero.
	e.OnTick(&models.Tick{Symbol: "BTC", Price: 100, Timestamp: base})
	n.expectNone(t)

	// +3% inside the window: below threshold.
	e.OnTick(&models.Tick{Symbol: "BTC", Price: 103, Timestamp: base + 10})
	n.expectNone(t)

	// +6% against the window-open price fires.
	e.OnTick(&models.Tick{Symbol: "BTC", Price: 106, Timestamp: base + 20})
	ev := n.wait(t)
	if ev.Reference != 100 || ev.Change != 6 {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// After the window elapses the reference resets to the current price.
	e.OnTick(&models.Tick{Symbol: "BTC", Price: 106, Timestamp: base + 90})
	n.expectNone(t)

	// -6% against the new reference fires on the downside too.
	e.OnTick(&models.Tick{Symbol: "BTC", Price: 99.64, Timestamp: base + 100})
	ev = n.wait(t)
	if ev.Change >= 0 {
		t.Fatalf("expected negative change, got %+v", ev)
	}
}
