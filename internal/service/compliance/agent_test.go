package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"InvestAgent/internal/domain/models"
)

type stubNarrator struct {
	text    string
	modelID string
	err     error
	calls   int
}

func (s *stubNarrator) ComplianceNarrative(_ context.Context, _ *models.ComplianceCheck, _ []models.ComplianceFinding) (string, string, error) {
	s.calls++
	return s.text, s.modelID, s.err
}

func TestProcessComplianceRequestRejectsCritical(t *testing.T) {
	a := NewAgent(NewRegulationStore(seedRegulations()), nil, false, time.Minute, nil)

	res, err := a.ProcessComplianceRequest(context.Background(), &models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "US",
		AssetClass:   "equity",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.ComplianceRejected {
		t.Fatalf("expected rejected, got %s", res.Status)
	}
	if len(res.Findings) != 1 || res.Findings[0].RegulationID != "sec-10b5" {
		t.Fatalf("unexpected findings: %+v", res.Findings)
	}
	if res.LLMAssessed {
		t.Fatalf("LLM disabled, must not be assessed")
	}
}

func TestProcessComplianceRequestReviewAndApproved(t *testing.T) {
	a := NewAgent(NewRegulationStore(seedRegulations()), nil, false, time.Minute, nil)
	ctx := context.Background()

	res, err := a.ProcessComplianceRequest(ctx, &models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "EU",
		AssetClass:   "equity",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.ComplianceReview {
		t.Fatalf("expected review for warning finding, got %s", res.Status)
	}

	res, err = a.ProcessComplianceRequest(ctx, &models.ComplianceCheck{
		ActivityType: "marketing",
		Jurisdiction: "EU",
		AssetClass:   "equity",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.ComplianceApproved {
		t.Fatalf("expected approved with no findings, got %s", res.Status)
	}
}

func TestProcessComplianceRequestValidation(t *testing.T) {
	a := NewAgent(NewRegulationStore(nil), nil, false, time.Minute, nil)
	ctx := context.Background()
	if _, err := a.ProcessComplianceRequest(ctx, nil); err == nil {
		t.Fatalf("expected error for nil check")
	}
	if _, err := a.ProcessComplianceRequest(ctx, &models.ComplianceCheck{Jurisdiction: "US"}); err == nil {
		t.Fatalf("expected error for missing activity type")
	}
}

func TestProcessComplianceRequestNarrative(t *testing.T) {
	n := &stubNarrator{text: "Escalate to compliance.", modelID: "m1"}
	a := NewAgent(NewRegulationStore(seedRegulations()), n, true, time.Minute, nil)

	res, err := a.ProcessComplianceRequest(context.Background(), &models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "US",
		AssetClass:   "equity",
		WithLLM:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.LLMAssessed || res.Narrative != "Escalate to compliance." || res.ModelID != "m1" {
		t.Fatalf("narrative not attached: %+v", res)
	}
	if n.calls != 1 {
		t.Fatalf("expected one narrator call, got %d", n.calls)
	}
}

func TestProcessComplianceRequestNarrativeFailureDegrades(t *testing.T) {
	n := &stubNarrator{err: errors.New("model down")}
	a := NewAgent(NewRegulationStore(seedRegulations()), n, true, time.Minute, nil)

	res, err := a.ProcessComplianceRequest(context.Background(), &models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "US",
		AssetClass:   "equity",
		WithLLM:      true,
	})
	if err != nil {
		t.Fatalf("rules-only degradation must not error: %v", err)
	}
	if res.LLMAssessed || res.Narrative != "" {
		t.Fatalf("failed narrative must not be attached: %+v", res)
	}
	if res.Status != models.ComplianceRejected {
		t.Fatalf("rules result must be intact, got %s", res.Status)
	}
}

func TestGetRegulationDetails(t *testing.T) {
	a := NewAgent(NewRegulationStore(seedRegulations()), nil, false, time.Minute, nil)
	ctx := context.Background()

	reg, err := a.GetRegulationDetails(ctx, "mifid2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Name != "MiFID II" {
		t.Fatalf("unexpected regulation: %+v", reg)
	}

	// Cached path returns the same record.
	again, err := a.GetRegulationDetails(ctx, "mifid2")
	if err != nil || again != reg {
		t.Fatalf("expected cached pointer, got %v %v", again, err)
	}

	if _, err := a.GetRegulationDetails(ctx, "nope"); err == nil {
		t.Fatalf("expected not-found error")
	}
	if _, err := a.GetRegulationDetails(ctx, "  "); err == nil {
		t.Fatalf("expected error for blank id")
	}
}
