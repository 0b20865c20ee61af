package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"InvestAgent/internal/domain/models"
	"InvestAgent/pkg/cache"
	applogger "InvestAgent/pkg/logger"
	"InvestAgent/pkg/queue"
)

const (
	analysisJobType   = "analysis.request"
	analysisResultTTL = time.Hour
)

// AnalysisJobPayload is the queued form of an analysis request.
type AnalysisJobPayload struct {
	RequestID string              `json:"request_id"`
	Task      models.AnalysisTask `json:"task"`
}

// AsyncAnalysis enqueues analysis work and serves cached results. Results
// are keyed by a hash of the task, so identical requests share one run.
type AsyncAnalysis struct {
	queue  *queue.RedisQueue
	cache  cache.Service
	logger *applogger.Logger
}

func NewAsyncAnalysis(q *queue.RedisQueue, c cache.Service, logger *applogger.Logger) *AsyncAnalysis {
	return &AsyncAnalysis{queue: q, cache: c, logger: logger}
}

// Submit enqueues the task and returns its request id. If a result for the
// same task is already cached, no new job is queued.
func (a *AsyncAnalysis) Submit(ctx context.Context, task *models.AnalysisTask) (string, error) {
	if task == nil {
		return "", fmt.Errorf("task is nil")
	}
	if !models.IsValidAnalysisType(task.AnalysisType) {
		return "", fmt.Errorf("unknown analysis type %q", task.AnalysisType)
	}
	if task.Investment.Symbol == "" {
		return "", fmt.Errorf("investment symbol required")
	}

	id, err := taskHash(task)
	if err != nil {
		return "", err
	}

	if ok, _ := a.cache.Exists(ctx, resultKey(id)); ok {
		return id, nil
	}

	payload := AnalysisJobPayload{RequestID: id, Task: *task}
	if err := a.queue.Enqueue(ctx, analysisJobType, payload); err != nil {
		return "", fmt.Errorf("enqueue analysis: %w", err)
	}
	return id, nil
}

// Result returns the cached analysis for a request id, or (nil, false, nil)
// while the job is still pending.
func (a *AsyncAnalysis) Result(ctx context.Context, requestID string) (*models.InvestmentAnalysis, bool, error) {
	var out models.InvestmentAnalysis
	err := a.cache.Get(ctx, resultKey(requestID), &out)
	if err != nil {
		if err == cache.ErrCacheMiss {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load analysis result: %w", err)
	}
	return &out, true, nil
}

// AnalysisJob is the queue worker side: it runs the orchestrator and caches
// the result under the request id.
type AnalysisJob struct {
	orch   *AnalysisOrchestrator
	cache  cache.Service
	logger *applogger.Logger
}

func NewAnalysisJob(orch *AnalysisOrchestrator, c cache.Service, logger *applogger.Logger) *AnalysisJob {
	return &AnalysisJob{orch: orch, cache: c, logger: logger}
}

func (j *AnalysisJob) Name() string { return "investment_analysis" }
func (j *AnalysisJob) Type() string { return analysisJobType }

func (j *AnalysisJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AnalysisJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse analysis payload: %w", err)
	}

	analysis, err := j.orch.Analyze(ctx, &p.Task)
	if err != nil {
		return fmt.Errorf("analysis job %s: %w", p.RequestID, err)
	}

	if err := j.cache.Set(ctx, resultKey(p.RequestID), analysis, analysisResultTTL); err != nil {
		return fmt.Errorf("cache analysis result: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("analysis job completed",
			applogger.String("request_id", p.RequestID),
			applogger.String("symbol", analysis.Symbol),
			applogger.String("model", analysis.ModelID))
	}
	return nil
}

var _ queue.Job = (*AnalysisJob)(nil)

func resultKey(id string) string { return "analysis_result:" + id }

// taskHash derives a stable id from the task content.
func taskHash(task *models.AnalysisTask) (string, error) {
	b, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("hash task: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16]), nil
}
