package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"InvestAgent/internal/domain/models"
)

type fakeSelector struct {
	selectID  string
	selectErr error
	fallbacks map[string]string
	samples   []*models.PerformanceSample
}

func (f *fakeSelector) SelectModel(_ context.Context, _ *models.TaskRequest) (*models.ModelProfile, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return &models.ModelProfile{ID: f.selectID}, nil
}

func (f *fakeSelector) RecordPerformance(_ context.Context, s *models.PerformanceSample) {
	f.samples = append(f.samples, s)
}

func (f *fakeSelector) GetModelHealth(_ context.Context, _ string) (*models.ModelHealth, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSelector) GetFallbackModel(_ context.Context, modelID string) (*models.ModelProfile, error) {
	fb, ok := f.fallbacks[modelID]
	if !ok {
		return nil, fmt.Errorf("no fallback for %s", modelID)
	}
	return &models.ModelProfile{ID: fb}, nil
}

func (f *fakeSelector) RegisterCustomModel(_ context.Context, _ *models.ModelProfile) error {
	return errors.New("not implemented")
}

type fakeCompleter struct {
	fn    func(req *models.CompletionRequest) (*models.CompletionResult, error)
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, req *models.CompletionRequest) (*models.CompletionResult, error) {
	f.calls++
	return f.fn(req)
}

const analysisJSON = `{"symbol":"IGNORED","summary":"Strong balance sheet.","rating":"buy","confidence":0.75,"key_factors":["cash flow"],"risks":["regulation"]}`

func analysisTask() *models.AnalysisTask {
	return &models.AnalysisTask{
		AnalysisType: models.AnalysisFundamental,
		Horizon:      "1y",
		Investment: models.Investment{
			Symbol:       "AAPL",
			Fundamentals: map[string]float64{"pe_ratio": 28.5},
		},
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	sel := &fakeSelector{selectID: "pro"}
	comp := &fakeCompleter{fn: func(req *models.CompletionRequest) (*models.CompletionResult, error) {
		if req.ModelID != "pro" {
			t.Fatalf("unexpected model: %s", req.ModelID)
		}
		if !strings.Contains(req.Prompt, "AAPL") {
			t.Fatalf("prompt missing symbol: %s", req.Prompt)
		}
		return &models.CompletionResult{
			ModelID:      "pro",
			Text:         analysisJSON,
			InputTokens:  120,
			OutputTokens: 60,
		}, nil
	}}
	o := NewAnalysisOrchestrator(sel, comp, nil)

	got, err := o.Analyze(context.Background(), analysisTask())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Fatalf("task symbol must win over model output, got %s", got.Symbol)
	}
	if got.AnalysisType != models.AnalysisFundamental || got.ModelID != "pro" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if got.InputTokens != 120 || got.OutputTokens != 60 {
		t.Fatalf("token accounting lost: %+v", got)
	}
	if got.GeneratedAt.IsZero() {
		t.Fatalf("generated_at not set")
	}

	if len(sel.samples) != 1 {
		t.Fatalf("expected 1 performance sample, got %d", len(sel.samples))
	}
	s := sel.samples[0]
	if !s.Success || s.ModelID != "pro" || s.TaskType != "analysis" || s.OutputTokens != 60 {
		t.Fatalf("unexpected sample: %+v", s)
	}
}

func TestAnalyzeRetriesOnFallback(t *testing.T) {
	sel := &fakeSelector{selectID: "pro", fallbacks: map[string]string{"pro": "lite"}}
	comp := &fakeCompleter{fn: func(req *models.CompletionRequest) (*models.CompletionResult, error) {
		if req.ModelID == "pro" {
			return nil, errors.New("throttled")
		}
		return &models.CompletionResult{ModelID: req.ModelID, Text: analysisJSON}, nil
	}}
	o := NewAnalysisOrchestrator(sel, comp, nil)

	got, err := o.Analyze(context.Background(), analysisTask())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ModelID != "lite" {
		t.Fatalf("expected fallback model, got %s", got.ModelID)
	}
	if comp.calls != 2 {
		t.Fatalf("expected 2 completion attempts, got %d", comp.calls)
	}
	if len(sel.samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(sel.samples))
	}
	if sel.samples[0].Success || sel.samples[0].ModelID != "pro" {
		t.Fatalf("first sample must record the failure: %+v", sel.samples[0])
	}
	if !sel.samples[1].Success || sel.samples[1].ModelID != "lite" {
		t.Fatalf("second sample must record the retry: %+v", sel.samples[1])
	}
}

func TestAnalyzeFailsWithoutFallback(t *testing.T) {
	sel := &fakeSelector{selectID: "micro"} // chain end, no fallback
	comp := &fakeCompleter{fn: func(_ *models.CompletionRequest) (*models.CompletionResult, error) {
		return nil, errors.New("throttled")
	}}
	o := NewAnalysisOrchestrator(sel, comp, nil)

	if _, err := o.Analyze(context.Background(), analysisTask()); err == nil {
		t.Fatalf("expected error")
	}
	if comp.calls != 1 {
		t.Fatalf("expected single attempt, got %d", comp.calls)
	}
}

func TestAnalyzeRejectsUnparseableOutput(t *testing.T) {
	sel := &fakeSelector{selectID: "pro"}
	comp := &fakeCompleter{fn: func(_ *models.CompletionRequest) (*models.CompletionResult, error) {
		return &models.CompletionResult{ModelID: "pro", Text: "I cannot help with that."}, nil
	}}
	o := NewAnalysisOrchestrator(sel, comp, nil)

	if _, err := o.Analyze(context.Background(), analysisTask()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	o := NewAnalysisOrchestrator(&fakeSelector{selectID: "pro"}, &fakeCompleter{}, nil)
	ctx := context.Background()

	if _, err := o.Analyze(ctx, nil); err == nil {
		t.Fatalf("expected error for nil task")
	}
	if _, err := o.Analyze(ctx, &models.AnalysisTask{AnalysisType: "astrology", Investment: models.Investment{Symbol: "AAPL"}}); err == nil {
		t.Fatalf("expected error for unknown analysis type")
	}
	if _, err := o.Analyze(ctx, &models.AnalysisTask{AnalysisType: models.AnalysisRisk}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestComplianceNarrative(t *testing.T) {
	sel := &fakeSelector{selectID: "pro"}
	comp := &fakeCompleter{fn: func(req *models.CompletionRequest) (*models.CompletionResult, error) {
		if !strings.Contains(req.Prompt, "sec-10b5") {
			t.Fatalf("findings missing from prompt: %s", req.Prompt)
		}
		return &models.CompletionResult{ModelID: "pro", Text: "Escalate before trading."}, nil
	}}
	o := NewAnalysisOrchestrator(sel, comp, nil)

	text, modelID, err := o.ComplianceNarrative(context.Background(),
		&models.ComplianceCheck{ActivityType: "trade", Jurisdiction: "US"},
		[]models.ComplianceFinding{{RegulationID: "sec-10b5", Severity: models.SeverityCritical}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Escalate before trading." || modelID != "pro" {
		t.Fatalf("unexpected narrative: %q %q", text, modelID)
	}
	if len(sel.samples) != 1 || sel.samples[0].TaskType != "compliance" {
		t.Fatalf("compliance sample not recorded: %+v", sel.samples)
	}
}
