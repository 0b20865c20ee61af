package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"InvestAgent/internal/domain/models"
)

const systemBase = `You are an investment research analyst. You produce rigorous, sourced,
non-promotional analysis. You never give personalized financial advice and you
flag uncertainty explicitly. Respond with a single JSON object only, no prose
before or after it.`

const outputContract = `The JSON object must contain exactly these fields:
"symbol" (string), "analysis_type" (string), "summary" (string, <= 120 words),
"rating" (one of "buy", "hold", "sell"), "confidence" (number 0..1),
"key_factors" (array of strings), "risks" (array of strings)%s.`

var analysisFocus = map[string]string{
	models.AnalysisFundamental: "Focus on valuation, earnings quality, balance sheet strength, and competitive position.",
	models.AnalysisTechnical:   "Focus on price action, trend, momentum, and notable support/resistance levels.",
	models.AnalysisRisk:        "Focus on downside scenarios, volatility, drawdown, concentration, and liquidity risk.",
	models.AnalysisESG:         "Focus on environmental, social, and governance factors and their materiality.",
}

// GenerateSystemPrompt renders the analyst persona plus the output contract
// for the given analysis type.
func GenerateSystemPrompt(analysisType string) (string, error) {
	focus, ok := analysisFocus[analysisType]
	if !ok {
		return "", fmt.Errorf("unknown analysis type: %s", analysisType)
	}
	extra := ""
	if analysisType == models.AnalysisESG {
		extra = `, "esg_score" (number 0..100)`
	}
	var b strings.Builder
	b.WriteString(systemBase)
	b.WriteString("\n\n")
	b.WriteString(focus)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(outputContract, extra))
	return b.String(), nil
}

// BuildUserPrompt renders the investment payload and horizon for the model.
func BuildUserPrompt(task *models.AnalysisTask) (string, error) {
	if task == nil || task.Investment.Symbol == "" {
		return "", fmt.Errorf("investment symbol is required")
	}
	payload, err := json.MarshalIndent(task.Investment, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal investment: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Produce a %s analysis of the following investment over a %s horizon.\n\n",
		task.AnalysisType, task.Horizon)
	b.Write(payload)
	return b.String(), nil
}

// ParseAnalysisResponse extracts the first JSON object from model text
// (tolerating markdown fences and prose padding) and decodes it.
func ParseAnalysisResponse(text string) (*models.InvestmentAnalysis, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var out models.InvestmentAnalysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if out.Symbol == "" || out.Summary == "" {
		return nil, fmt.Errorf("analysis missing required fields")
	}
	switch out.Rating {
	case "buy", "hold", "sell":
	default:
		return nil, fmt.Errorf("invalid rating: %q", out.Rating)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("confidence out of range: %v", out.Confidence)
	}
	return &out, nil
}

// extractJSON returns the first balanced top-level JSON object in text.
func extractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in model output")
}
