package compliance

import (
	"testing"

	"InvestAgent/internal/domain/models"
)

func seedRegulations() []models.Regulation {
	return []models.Regulation{
		{
			ID:            "sec-10b5",
			Name:          "SEC Rule 10b-5",
			Jurisdiction:  "US",
			Categories:    []string{"trading"},
			ActivityTypes: []string{"trade", "recommendation"},
			AssetClasses:  []string{"equity"},
			Severity:      models.SeverityCritical,
		},
		{
			ID:            "mifid2",
			Name:          "MiFID II",
			Jurisdiction:  "EU",
			Categories:    []string{"trading", "reporting"},
			ActivityTypes: []string{"trade"},
			Severity:      models.SeverityWarning,
		},
		{
			ID:            "aml-threshold",
			Name:          "AML Reporting",
			Jurisdiction:  "global",
			Categories:    []string{"kyc"},
			ActivityTypes: []string{"transfer"},
			MinAmount:     10000,
			Severity:      models.SeverityCritical,
		},
	}
}

func TestRegulationStoreGet(t *testing.T) {
	s := NewRegulationStore(seedRegulations())
	r, ok := s.Get("mifid2")
	if !ok || r.Name != "MiFID II" {
		t.Fatalf("lookup failed: %v %v", r, ok)
	}
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestRegulationStoreDefaultsSeverity(t *testing.T) {
	s := NewRegulationStore([]models.Regulation{{ID: "x", Jurisdiction: "US"}})
	r, _ := s.Get("x")
	if r.Severity != models.SeverityInfo {
		t.Fatalf("expected info default, got %s", r.Severity)
	}
}

func TestRegulationStoreDuplicateReplaces(t *testing.T) {
	s := NewRegulationStore([]models.Regulation{
		{ID: "x", Name: "old", Jurisdiction: "US"},
		{ID: "x", Name: "new", Jurisdiction: "US"},
	})
	r, _ := s.Get("x")
	if r.Name != "new" {
		t.Fatalf("expected replacement, got %s", r.Name)
	}
	if got := len(s.Search("US", "")); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestSearchByJurisdictionAndCategory(t *testing.T) {
	s := NewRegulationStore(seedRegulations())

	us := s.Search("us", "")
	if len(us) != 2 { // sec-10b5 + global aml
		t.Fatalf("expected 2, got %d", len(us))
	}
	kyc := s.Search("EU", "kyc")
	if len(kyc) != 1 || kyc[0].ID != "aml-threshold" {
		t.Fatalf("unexpected kyc result: %+v", kyc)
	}
}

func TestMatchActivityAndAmount(t *testing.T) {
	s := NewRegulationStore(seedRegulations())

	got := s.Match(&models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "US",
		AssetClass:   "equity",
	})
	if len(got) != 1 || got[0].ID != "sec-10b5" {
		t.Fatalf("unexpected match: %+v", got)
	}

	// Below the AML threshold the transfer matches nothing.
	if got := s.Match(&models.ComplianceCheck{
		ActivityType: "transfer",
		Jurisdiction: "UK",
		AssetClass:   "fiat",
		Amount:       500,
	}); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}

	got = s.Match(&models.ComplianceCheck{
		ActivityType: "transfer",
		Jurisdiction: "UK",
		AssetClass:   "fiat",
		Amount:       25000,
	})
	if len(got) != 1 || got[0].ID != "aml-threshold" {
		t.Fatalf("expected aml match, got %+v", got)
	}
}

func TestMatchAssetClassFilter(t *testing.T) {
	s := NewRegulationStore(seedRegulations())
	got := s.Match(&models.ComplianceCheck{
		ActivityType: "trade",
		Jurisdiction: "US",
		AssetClass:   "crypto",
	})
	if len(got) != 0 {
		t.Fatalf("equity-only rule must not match crypto: %+v", got)
	}
}
