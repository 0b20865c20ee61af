package models

import "time"

// Analysis types rendered into system prompts.
const (
	AnalysisFundamental = "fundamental"
	AnalysisTechnical   = "technical"
	AnalysisRisk        = "risk"
	AnalysisESG         = "esg"
)

// Investment is the instrument payload handed to the analyst model.
type Investment struct {
	Symbol       string             `json:"symbol"`
	Name         string             `json:"name,omitempty"`
	AssetClass   string             `json:"asset_class,omitempty"`
	Sector       string             `json:"sector,omitempty"`
	Fundamentals map[string]float64 `json:"fundamentals,omitempty"` // pe_ratio, eps, dividend_yield...
	RiskMetrics  map[string]float64 `json:"risk_metrics,omitempty"` // beta, volatility, var_95...
	Notes        string             `json:"notes,omitempty"`
}

// AnalysisTask is the domain-level analysis request.
type AnalysisTask struct {
	AnalysisType string
	Investment   Investment
	Horizon      string // e.g. "6m", "1y"
	MaxTokens    int
	Temperature  float64
}

// InvestmentAnalysis is the structured result parsed from model output.
type InvestmentAnalysis struct {
	Symbol       string    `json:"symbol"`
	AnalysisType string    `json:"analysis_type"`
	Summary      string    `json:"summary"`
	Rating       string    `json:"rating"` // buy, hold, sell
	Confidence   float64   `json:"confidence"`
	KeyFactors   []string  `json:"key_factors,omitempty"`
	Risks        []string  `json:"risks,omitempty"`
	ESGScore     *float64  `json:"esg_score,omitempty"`
	ModelID      string    `json:"model_id"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// IsValidAnalysisType reports whether t names a supported analysis type.
func IsValidAnalysisType(t string) bool {
	switch t {
	case AnalysisFundamental, AnalysisTechnical, AnalysisRisk, AnalysisESG:
		return true
	default:
		return false
	}
}
