package prompt

import (
	"strings"
	"testing"

	"InvestAgent/internal/domain/models"
)

func TestGenerateSystemPrompt(t *testing.T) {
	got, err := GenerateSystemPrompt(models.AnalysisFundamental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "valuation") {
		t.Fatalf("missing fundamental focus: %s", got)
	}
	if strings.Contains(got, "esg_score") {
		t.Fatalf("esg_score must only appear for esg analyses")
	}

	esg, err := GenerateSystemPrompt(models.AnalysisESG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(esg, "esg_score") {
		t.Fatalf("esg contract missing esg_score field")
	}

	if _, err := GenerateSystemPrompt("astrology"); err == nil {
		t.Fatalf("expected error for unknown analysis type")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	task := &models.AnalysisTask{
		AnalysisType: models.AnalysisRisk,
		Horizon:      "1y",
		Investment: models.Investment{
			Symbol:       "AAPL",
			Fundamentals: map[string]float64{"pe_ratio": 28.5},
		},
	}
	got, err := BuildUserPrompt(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "risk analysis") || !strings.Contains(got, "1y horizon") {
		t.Fatalf("prompt missing task framing: %s", got)
	}
	if !strings.Contains(got, `"pe_ratio": 28.5`) {
		t.Fatalf("prompt missing investment payload: %s", got)
	}

	if _, err := BuildUserPrompt(&models.AnalysisTask{}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestParseAnalysisResponse(t *testing.T) {
	text := "Here is the analysis:\n```json\n" +
		`{"symbol":"AAPL","analysis_type":"fundamental","summary":"Solid cash flow.","rating":"buy","confidence":0.8,"key_factors":["margins"],"risks":["multiple compression"]}` +
		"\n```\nLet me know if you need more."
	got, err := ParseAnalysisResponse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "AAPL" || got.Rating != "buy" || got.Confidence != 0.8 {
		t.Fatalf("bad parse: %+v", got)
	}
}

func TestParseAnalysisResponseValidation(t *testing.T) {
	cases := []string{
		"no json here",
		`{"symbol":"AAPL","summary":"x","rating":"strong buy","confidence":0.5}`,
		`{"symbol":"AAPL","summary":"x","rating":"buy","confidence":1.5}`,
		`{"symbol":"","summary":"x","rating":"buy","confidence":0.5}`,
		`{"symbol":"AAPL","summary":"x","rating":"buy","confidence":0.5`,
	}
	for i, c := range cases {
		if _, err := ParseAnalysisResponse(c); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	text := `{"summary":"uses {curly} braces and a quote \" inside","symbol":"X","rating":"hold","confidence":0.5} trailing {`
	raw, err := extractJSON(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(raw, "}") || strings.Contains(raw, "trailing") {
		t.Fatalf("wrong extraction: %s", raw)
	}
}
