package modelselect

import (
	"context"
	"sync"
	"testing"
	"time"

	"InvestAgent/internal/domain/models"
)

func testProfiles() []models.ModelProfile {
	return []models.ModelProfile{
		{
			ID:              "pro",
			Provider:        "bedrock",
			Family:          "nova",
			Capabilities:    []string{models.CapTextGeneration, models.CapReasoning, models.CapStructured},
			OutputCostPer1K: 0.0032,
			MaxTokens:       5120,
			ContextWindow:   300000,
			TargetLatencyMs: 2500,
			FallbackID:      "lite",
		},
		{
			ID:              "lite",
			Provider:        "bedrock",
			Family:          "nova",
			Capabilities:    []string{models.CapTextGeneration, models.CapStructured},
			OutputCostPer1K: 0.00024,
			MaxTokens:       5120,
			ContextWindow:   300000,
			TargetLatencyMs: 1200,
			FallbackID:      "micro",
		},
		{
			ID:              "micro",
			Provider:        "bedrock",
			Family:          "nova",
			Capabilities:    []string{models.CapTextGeneration},
			OutputCostPer1K: 0.00014,
			MaxTokens:       5120,
			ContextWindow:   128000,
			TargetLatencyMs: 600,
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New(testProfiles(), Options{HealthCacheTTL: time.Nanosecond}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return s
}

func TestNewRejectsDuplicates(t *testing.T) {
	seed := testProfiles()
	seed = append(seed, seed[0])
	if _, err := New(seed, Options{}, nil, nil, nil); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestSelectModelFiltersByCapability(t *testing.T) {
	s := newTestService(t)
	got, err := s.SelectModel(context.Background(), &models.TaskRequest{
		TaskType:     "analysis",
		Capabilities: []string{models.CapReasoning},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "pro" {
		t.Fatalf("expected pro (only reasoning model), got %s", got.ID)
	}
}

func TestSelectModelPrefersCheaper(t *testing.T) {
	s := newTestService(t)
	got, err := s.SelectModel(context.Background(), &models.TaskRequest{
		TaskType:     "summarization",
		Capabilities: []string{models.CapTextGeneration},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "micro" {
		t.Fatalf("expected micro (cheapest), got %s", got.ID)
	}
}

func TestSelectModelRespectsCostCeiling(t *testing.T) {
	s := newTestService(t)
	_, err := s.SelectModel(context.Background(), &models.TaskRequest{
		TaskType:     "analysis",
		Capabilities: []string{models.CapReasoning},
		MaxCostPer1K: 0.001, // pro is over budget
	})
	if err == nil {
		t.Fatalf("expected no-candidate error")
	}
}

func TestSelectModelRequiresCapabilities(t *testing.T) {
	s := newTestService(t)
	if _, err := s.SelectModel(context.Background(), &models.TaskRequest{TaskType: "x"}); err == nil {
		t.Fatalf("expected error for empty capabilities")
	}
}

func TestSelectModelSkipsUnhealthy(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Drive micro unhealthy: all failures.
	for i := 0; i < 20; i++ {
		s.RecordPerformance(ctx, &models.PerformanceSample{ModelID: "micro", LatencyMs: 500, Success: false})
	}
	time.Sleep(time.Millisecond) // let the health cache entry expire

	got, err := s.SelectModel(ctx, &models.TaskRequest{
		TaskType:     "summarization",
		Capabilities: []string{models.CapTextGeneration},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "micro" {
		t.Fatalf("unhealthy model selected")
	}
}

func TestGetModelHealthTransitions(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	h, err := s.GetModelHealth(ctx, "lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != models.HealthUnknown {
		t.Fatalf("expected unknown before samples, got %s", h.Status)
	}

	for i := 0; i < 9; i++ {
		s.RecordPerformance(ctx, &models.PerformanceSample{ModelID: "lite", LatencyMs: 100, Success: true})
	}
	s.RecordPerformance(ctx, &models.PerformanceSample{ModelID: "lite", LatencyMs: 100, Success: false})
	time.Sleep(time.Millisecond)

	h, err = s.GetModelHealth(ctx, "lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10% error rate: above degraded (5%), below unhealthy (25%).
	if h.Status != models.HealthDegraded {
		t.Fatalf("expected degraded, got %s", h.Status)
	}
	if h.SampleCount != 10 {
		t.Fatalf("expected 10 samples, got %d", h.SampleCount)
	}
	if h.SuccessRate != 0.9 {
		t.Fatalf("expected 0.9 success rate, got %v", h.SuccessRate)
	}

	if _, err := s.GetModelHealth(ctx, "nope"); err == nil {
		t.Fatalf("expected unknown model error")
	}
}

func TestGetFallbackModel(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	fb, err := s.GetFallbackModel(ctx, "pro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.ID != "lite" {
		t.Fatalf("expected lite, got %s", fb.ID)
	}

	// With lite unhealthy the chain should continue to micro.
	for i := 0; i < 20; i++ {
		s.RecordPerformance(ctx, &models.PerformanceSample{ModelID: "lite", LatencyMs: 100, Success: false})
	}
	time.Sleep(time.Millisecond)
	fb, err = s.GetFallbackModel(ctx, "pro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.ID != "micro" {
		t.Fatalf("expected micro, got %s", fb.ID)
	}

	if _, err := s.GetFallbackModel(ctx, "micro"); err == nil {
		t.Fatalf("expected no-fallback error for chain end")
	}
}

func TestGetFallbackModelConcurrentWithRecording(t *testing.T) {
	// Fallback lookups must not wedge while samples are being recorded:
	// the nanosecond cache TTL forces a health recompute (and with it a
	// lock acquisition) on every lookup.
	s := newTestService(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if _, err := s.GetFallbackModel(ctx, "pro"); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.RecordPerformance(ctx, &models.PerformanceSample{
					ModelID:   "lite",
					LatencyMs: 5,
					Success:   i%2 == 0,
				})
			}
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("fallback lookup deadlocked against concurrent recording")
	}
}

func TestGetFallbackModelCycleSafe(t *testing.T) {
	seed := []models.ModelProfile{
		{ID: "a", Provider: "bedrock", Capabilities: []string{models.CapTextGeneration}, MaxTokens: 1024, FallbackID: "b"},
		{ID: "b", Provider: "bedrock", Capabilities: []string{models.CapTextGeneration}, MaxTokens: 1024, FallbackID: "a"},
	}
	s, err := New(seed, Options{HealthCacheTTL: time.Nanosecond}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		s.RecordPerformance(ctx, &models.PerformanceSample{ModelID: "b", LatencyMs: 1, Success: false})
	}
	time.Sleep(time.Millisecond)
	if _, err := s.GetFallbackModel(ctx, "a"); err == nil {
		t.Fatalf("expected error, cycle must terminate")
	}
}

func TestRegisterCustomModel(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p := &models.ModelProfile{
		ID:           "custom-1",
		Provider:     "bedrock",
		Capabilities: []string{models.CapTextGeneration},
		MaxTokens:    2048,
		FallbackID:   "micro",
	}
	if err := s.RegisterCustomModel(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := s.GetProfile("custom-1")
	if !ok || !got.Custom {
		t.Fatalf("custom profile not stored correctly: %+v", got)
	}

	if err := s.RegisterCustomModel(ctx, p); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := s.RegisterCustomModel(ctx, &models.ModelProfile{
		ID:           "custom-2",
		Provider:     "bedrock",
		Capabilities: []string{models.CapTextGeneration},
		MaxTokens:    2048,
		FallbackID:   "ghost",
	}); err == nil {
		t.Fatalf("expected unknown fallback error")
	}
}
