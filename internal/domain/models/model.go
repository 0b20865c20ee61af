package models

import (
	"fmt"
	"time"
)

// Model capabilities used for task matching.
const (
	CapTextGeneration = "text-generation"
	CapReasoning      = "reasoning"
	CapStructured     = "structured-output"
	CapLongContext    = "long-context"
	CapEmbedding      = "embedding"
)

// Health statuses derived from rolling performance windows.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
	HealthUnknown   = "unknown"
)

// ModelProfile describes a hosted model available for selection.
type ModelProfile struct {
	ID              string   `yaml:"id" json:"id"`
	Provider        string   `yaml:"provider" json:"provider"` // bedrock
	Family          string   `yaml:"family" json:"family"`     // nova, claude, titan
	Capabilities    []string `yaml:"capabilities" json:"capabilities"`
	InputCostPer1K  float64  `yaml:"input_cost_per_1k" json:"input_cost_per_1k"`
	OutputCostPer1K float64  `yaml:"output_cost_per_1k" json:"output_cost_per_1k"`
	MaxTokens       int      `yaml:"max_tokens" json:"max_tokens"`
	ContextWindow   int      `yaml:"context_window" json:"context_window"`
	TargetLatencyMs int      `yaml:"target_latency_ms" json:"target_latency_ms"`
	FallbackID      string   `yaml:"fallback_id" json:"fallback_id,omitempty"`
	Custom          bool     `yaml:"-" json:"custom"`
}

// Validate checks a profile before registration.
func (p *ModelProfile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if p.Provider == "" {
		return fmt.Errorf("model provider is required")
	}
	if len(p.Capabilities) == 0 {
		return fmt.Errorf("model must declare at least one capability")
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0")
	}
	if p.InputCostPer1K < 0 || p.OutputCostPer1K < 0 {
		return fmt.Errorf("costs must be >= 0")
	}
	return nil
}

// HasCapability reports whether the profile declares cap.
func (p *ModelProfile) HasCapability(cap string) bool {
	for _, c := range p.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// TaskRequest describes the work a model is being selected for.
type TaskRequest struct {
	TaskType         string   // analysis, compliance, summarization
	Capabilities     []string // required capabilities
	MaxCostPer1K     float64  // 0 = no budget constraint (output cost)
	LatencySensitive bool
	MinContextTokens int
}

// PerformanceSample is one observed model invocation.
type PerformanceSample struct {
	ModelID      string
	Timestamp    time.Time
	LatencyMs    int64
	InputTokens  int
	OutputTokens int
	Success      bool
	TaskType     string
}

// ModelHealth is a snapshot computed over the rolling sample window.
type ModelHealth struct {
	ModelID      string    `json:"model_id"`
	Status       string    `json:"status"`
	SuccessRate  float64   `json:"success_rate"`
	AvgLatencyMs float64   `json:"avg_latency_ms"`
	P95LatencyMs float64   `json:"p95_latency_ms"`
	SampleCount  int       `json:"sample_count"`
	LastSeen     time.Time `json:"last_seen"`
}
