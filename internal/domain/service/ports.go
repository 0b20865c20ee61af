package service

import (
	"context"

	"InvestAgent/internal/domain/models"
)

// Completer is an LLM capable of text completion.
type Completer interface {
	Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResult, error)
}

// ModelSelector allocates models to tasks and tracks their health.
type ModelSelector interface {
	SelectModel(ctx context.Context, task *models.TaskRequest) (*models.ModelProfile, error)
	RecordPerformance(ctx context.Context, sample *models.PerformanceSample)
	GetModelHealth(ctx context.Context, modelID string) (*models.ModelHealth, error)
	GetFallbackModel(ctx context.Context, modelID string) (*models.ModelProfile, error)
	RegisterCustomModel(ctx context.Context, profile *models.ModelProfile) error
}

// ComplianceChecker evaluates activities against stored regulations.
type ComplianceChecker interface {
	ProcessComplianceRequest(ctx context.Context, check *models.ComplianceCheck) (*models.ComplianceResult, error)
	GetRegulationDetails(ctx context.Context, id string) (*models.Regulation, error)
}

// Notifier delivers alert events over one channel.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, ev *models.AlertEvent) error
}
