package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"InvestAgent/internal/domain/models"
)

type recordingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (p *recordingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordMessageSent(string, string) {}
func (m *countingMetrics) RecordLastPrice(string, float64)  {}
func (m *countingMetrics) RecordLatency(string, float64)    {}
func (m *countingMetrics) RecordTokens(string, int, int)    {}
func (m *countingMetrics) RecordAlertFired(string, string)  {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func TestPipelineNormalizesAndForwards(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &countingMetrics{})

	err := p.Process(context.Background(), &models.Tick{Symbol: " aapl ", Price: 190.5, Volume: 10, Timestamp: 1700000000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected 1 forwarded tick, got %d", proc.count())
	}
	if proc.ticks[0].Symbol != "AAPL" {
		t.Fatalf("tick not normalized: %+v", proc.ticks[0])
	}
}

func TestPipelineRejectsInvalidTick(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewRealtimePipeline(proc, m)

	if err := p.Process(context.Background(), &models.Tick{Symbol: "", Price: 1, Timestamp: 1700000000}); err == nil {
		t.Fatalf("expected validation error")
	}
	if proc.count() != 0 {
		t.Fatalf("invalid tick must not reach downstream")
	}
	if m.errCount("pipeline_validate") != 1 {
		t.Fatalf("validation error not counted")
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewRealtimePipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	// Two back-to-back ticks for the same symbol: second is throttled, but
	// a different symbol passes.
	if err := p.Process(ctx, &models.Tick{Symbol: "AAPL", Price: 1, Timestamp: 1700000000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Process(ctx, &models.Tick{Symbol: "AAPL", Price: 2, Timestamp: 1700000000}); err != nil {
		t.Fatalf("throttled ticks drop silently: %v", err)
	}
	if err := p.Process(ctx, &models.Tick{Symbol: "MSFT", Price: 3, Timestamp: 1700000000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if proc.count() != 2 {
		t.Fatalf("expected 2 forwarded ticks, got %d", proc.count())
	}
	if m.errCount("pipeline_throttle") != 1 {
		t.Fatalf("throttle not counted")
	}
}

func TestPipelineInvokesTaps(t *testing.T) {
	proc := &recordingProc{}
	var tapped []*models.Tick
	p := NewRealtimePipeline(proc, &countingMetrics{}, WithTap(func(t *models.Tick) {
		tapped = append(tapped, t)
	}))

	var extra int
	p.AddTap(func(*models.Tick) { extra++ })

	if err := p.Process(context.Background(), &models.Tick{Symbol: "AAPL", Price: 1, Timestamp: 1700000000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tapped) != 1 || tapped[0].Symbol != "AAPL" {
		t.Fatalf("tap not invoked with normalized tick: %+v", tapped)
	}
	if extra != 1 {
		t.Fatalf("late-registered tap not invoked")
	}
}

func TestPipelineTapsSeeThrottledTicksNever(t *testing.T) {
	var tapped int
	p := NewRealtimePipeline(&recordingProc{}, &countingMetrics{}, WithMaxRPS(1), WithTap(func(*models.Tick) { tapped++ }))
	ctx := context.Background()

	p.Process(ctx, &models.Tick{Symbol: "AAPL", Price: 1, Timestamp: 1700000000})
	p.Process(ctx, &models.Tick{Symbol: "AAPL", Price: 2, Timestamp: 1700000000})
	if tapped != 1 {
		t.Fatalf("expected 1 tap call, got %d", tapped)
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("backend down")}
	m := &countingMetrics{}
	p := NewRealtimePipeline(proc, m, WithBufferSize(4))

	err := p.Process(context.Background(), &models.Tick{Symbol: "AAPL", Price: 1, Timestamp: 1700000000})
	if err == nil {
		t.Fatalf("expected downstream error")
	}
	if m.errCount("pipeline_process") != 1 {
		t.Fatalf("process error not counted")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("tick not buffered, buffer len %d", len(p.bufCh))
	}
}
