package models

import "time"

// CompletionRequest is a provider-agnostic LLM completion request.
type CompletionRequest struct {
	ModelID      string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
	TopP         float64
	Streaming    bool // accepted; responses are currently returned whole
}

// CompletionResult is the model output plus usage accounting.
type CompletionResult struct {
	ModelID      string
	Text         string
	StopReason   string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}
