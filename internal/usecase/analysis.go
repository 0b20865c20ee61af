package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	"InvestAgent/internal/service/prompt"
	applogger "InvestAgent/pkg/logger"
)

// AnalysisOrchestrator runs the full analysis flow: model selection,
// prompt assembly, completion with fallback, response parsing and
// performance accounting.
type AnalysisOrchestrator struct {
	selector  domsvc.ModelSelector
	completer domsvc.Completer
	logger    *applogger.Logger
}

func NewAnalysisOrchestrator(selector domsvc.ModelSelector, completer domsvc.Completer, logger *applogger.Logger) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{selector: selector, completer: completer, logger: logger}
}

// Analyze produces a structured investment analysis for the task.
func (o *AnalysisOrchestrator) Analyze(ctx context.Context, task *models.AnalysisTask) (*models.InvestmentAnalysis, error) {
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	if !models.IsValidAnalysisType(task.AnalysisType) {
		return nil, fmt.Errorf("unknown analysis type %q", task.AnalysisType)
	}
	if task.Investment.Symbol == "" {
		return nil, fmt.Errorf("investment symbol required")
	}

	system, err := prompt.GenerateSystemPrompt(task.AnalysisType)
	if err != nil {
		return nil, err
	}
	user, err := prompt.BuildUserPrompt(task)
	if err != nil {
		return nil, err
	}

	profile, err := o.selector.SelectModel(ctx, &models.TaskRequest{
		TaskType:     "analysis",
		Capabilities: []string{models.CapTextGeneration, models.CapReasoning, models.CapStructured},
	})
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}

	req := &models.CompletionRequest{
		ModelID:      profile.ID,
		SystemPrompt: system,
		Prompt:       user,
		MaxTokens:    task.MaxTokens,
		Temperature:  task.Temperature,
	}
	res, err := o.completeWithFallback(ctx, "analysis", req)
	if err != nil {
		return nil, err
	}

	analysis, err := prompt.ParseAnalysisResponse(res.Text)
	if err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	analysis.Symbol = task.Investment.Symbol
	analysis.AnalysisType = task.AnalysisType
	analysis.ModelID = res.ModelID
	analysis.InputTokens = res.InputTokens
	analysis.OutputTokens = res.OutputTokens
	analysis.GeneratedAt = time.Now()
	return analysis, nil
}

// ComplianceNarrative renders a short model-written assessment of the
// findings. It satisfies the compliance agent's Narrator dependency.
func (o *AnalysisOrchestrator) ComplianceNarrative(ctx context.Context, check *models.ComplianceCheck, findings []models.ComplianceFinding) (string, string, error) {
	profile, err := o.selector.SelectModel(ctx, &models.TaskRequest{
		TaskType:     "compliance",
		Capabilities: []string{models.CapTextGeneration, models.CapReasoning},
	})
	if err != nil {
		return "", "", fmt.Errorf("select model: %w", err)
	}

	payload := struct {
		Check    *models.ComplianceCheck    `json:"check"`
		Findings []models.ComplianceFinding `json:"findings"`
	}{check, findings}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal compliance payload: %w", err)
	}

	res, err := o.completeWithFallback(ctx, "compliance", &models.CompletionRequest{
		ModelID: profile.ID,
		SystemPrompt: "You are a financial compliance officer. Given an activity and the " +
			"regulations it matched, write a concise plain-text assessment (max 150 words) " +
			"of the obligations and next steps. Do not invent regulations.",
		Prompt:      string(b),
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		return "", "", err
	}
	return res.Text, res.ModelID, nil
}

// completeWithFallback invokes the model and, on failure, retries once on
// the configured fallback. Every attempt is recorded as a performance
// sample.
func (o *AnalysisOrchestrator) completeWithFallback(ctx context.Context, taskType string, req *models.CompletionRequest) (*models.CompletionResult, error) {
	res, err := o.invoke(ctx, taskType, req)
	if err == nil {
		return res, nil
	}

	fb, fbErr := o.selector.GetFallbackModel(ctx, req.ModelID)
	if fbErr != nil {
		return nil, fmt.Errorf("completion failed on %s (no fallback: %v): %w", req.ModelID, fbErr, err)
	}
	if o.logger != nil {
		o.logger.Warn("completion failed, retrying on fallback",
			applogger.String("model", req.ModelID),
			applogger.String("fallback", fb.ID),
			applogger.Error(err))
	}

	retry := *req
	retry.ModelID = fb.ID
	res, err2 := o.invoke(ctx, taskType, &retry)
	if err2 != nil {
		return nil, fmt.Errorf("completion failed on %s and fallback %s: %w", req.ModelID, fb.ID, err2)
	}
	return res, nil
}

func (o *AnalysisOrchestrator) invoke(ctx context.Context, taskType string, req *models.CompletionRequest) (*models.CompletionResult, error) {
	start := time.Now()
	res, err := o.completer.Complete(ctx, req)

	sample := &models.PerformanceSample{
		ModelID:   req.ModelID,
		Timestamp: time.Now(),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		TaskType:  taskType,
	}
	if res != nil {
		sample.InputTokens = res.InputTokens
		sample.OutputTokens = res.OutputTokens
	}
	o.selector.RecordPerformance(ctx, sample)

	if err != nil {
		return nil, err
	}
	return res, nil
}
