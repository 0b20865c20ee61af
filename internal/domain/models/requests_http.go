package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type TicksRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type CreateAlertRequest struct {
	Symbol    string   `json:"symbol" validate:"required"`
	Condition string   `json:"condition" validate:"required,oneof=price_above price_below pct_change"`
	Threshold float64  `json:"threshold" validate:"required,gt=0"`
	WindowSec int      `json:"window_sec" default:"300" validate:"gte=0"`
	Channels  []string `json:"channels" validate:"required,min=1,dive,oneof=kafka webhook"`
	Cooldown  int      `json:"cooldown_sec" default:"60" validate:"gte=0"`
}

type SelectModelRequest struct {
	TaskType         string   `json:"task_type" validate:"required"`
	Capabilities     []string `json:"capabilities" validate:"required,min=1"`
	MaxCostPer1K     float64  `json:"max_cost_per_1k" validate:"gte=0"`
	LatencySensitive bool     `json:"latency_sensitive"`
	MinContextTokens int      `json:"min_context_tokens" validate:"gte=0"`
}

type RegisterModelRequest struct {
	ID              string   `json:"id" validate:"required"`
	Provider        string   `json:"provider" validate:"required"`
	Family          string   `json:"family"`
	Capabilities    []string `json:"capabilities" validate:"required,min=1"`
	InputCostPer1K  float64  `json:"input_cost_per_1k" validate:"gte=0"`
	OutputCostPer1K float64  `json:"output_cost_per_1k" validate:"gte=0"`
	MaxTokens       int      `json:"max_tokens" validate:"required,gt=0"`
	ContextWindow   int      `json:"context_window" validate:"gte=0"`
	TargetLatencyMs int      `json:"target_latency_ms" validate:"gte=0"`
	FallbackID      string   `json:"fallback_id"`
}

type AnalysisRequest struct {
	AnalysisType string     `json:"analysis_type" default:"fundamental" validate:"oneof=fundamental technical risk esg"`
	Investment   Investment `json:"investment" validate:"required"`
	Horizon      string     `json:"horizon" default:"6m"`
	MaxTokens    int        `json:"max_tokens" default:"1024" validate:"gte=1,lte=8192"`
	Temperature  float64    `json:"temperature" default:"0.2" validate:"gte=0,lte=1"`
	Streaming    bool       `json:"streaming"`
}

type ComplianceCheckRequest struct {
	ActivityType string  `json:"activity_type" validate:"required,oneof=trade recommendation marketing transfer"`
	Jurisdiction string  `json:"jurisdiction" validate:"required"`
	AssetClass   string  `json:"asset_class" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Counterparty string  `json:"counterparty"`
	Description  string  `json:"description"`
	WithLLM      bool    `json:"with_llm"`
}
