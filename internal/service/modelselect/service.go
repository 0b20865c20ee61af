package modelselect

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"InvestAgent/internal/domain/models"
	drepo "InvestAgent/internal/domain/repository"
	domsvc "InvestAgent/internal/domain/service"
	icache "InvestAgent/internal/service/cache"
	applogger "InvestAgent/pkg/logger"
)

// Options tune health classification and the rolling window.
type Options struct {
	HealthWindow       int           // samples kept per model
	DegradedErrorRate  float64       // error rate beyond which a model is degraded
	UnhealthyErrorRate float64       // error rate beyond which a model is skipped
	HealthCacheTTL     time.Duration // snapshot cache TTL
}

func (o *Options) defaults() {
	if o.HealthWindow <= 0 {
		o.HealthWindow = 100
	}
	if o.DegradedErrorRate <= 0 {
		o.DegradedErrorRate = 0.05
	}
	if o.UnhealthyErrorRate <= 0 {
		o.UnhealthyErrorRate = 0.25
	}
	if o.HealthCacheTTL <= 0 {
		o.HealthCacheTTL = 10 * time.Second
	}
}

// Service allocates models to tasks and tracks per-model health.
type Service struct {
	mu       sync.RWMutex
	profiles map[string]*models.ModelProfile
	windows  map[string]*sampleWindow

	opts    Options
	cache   *icache.TTLCache
	perf    drepo.PerformanceStore // optional durable history
	metrics drepo.Metrics
	logger  *applogger.Logger
}

// New creates the service seeded with the given profiles.
func New(seed []models.ModelProfile, opts Options, perf drepo.PerformanceStore, metrics drepo.Metrics, logger *applogger.Logger) (*Service, error) {
	opts.defaults()
	s := &Service{
		profiles: make(map[string]*models.ModelProfile, len(seed)),
		windows:  make(map[string]*sampleWindow),
		opts:     opts,
		cache:    icache.NewTTLCache(),
		perf:     perf,
		metrics:  metrics,
		logger:   logger,
	}
	for i := range seed {
		p := seed[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed profile %q: %w", p.ID, err)
		}
		if _, dup := s.profiles[p.ID]; dup {
			return nil, fmt.Errorf("duplicate model id: %s", p.ID)
		}
		s.profiles[p.ID] = &p
	}
	return s, nil
}

// SelectModel returns the best candidate for the task.
//
// Candidates are capability-filtered first; survivors are scored on
// capability surplus, cost fit, latency fit, and live health. Models whose
// error rate exceeds the unhealthy threshold are skipped while an
// alternative exists. Ties break on id for determinism.
func (s *Service) SelectModel(ctx context.Context, task *models.TaskRequest) (*models.ModelProfile, error) {
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	if len(task.Capabilities) == 0 {
		return nil, fmt.Errorf("task must require at least one capability")
	}

	s.mu.RLock()
	candidates := make([]*models.ModelProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if s.matches(p, task) {
			candidates = append(candidates, p)
		}
	}
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no model satisfies task %q requirements", task.TaskType)
	}

	type scored struct {
		p     *models.ModelProfile
		score float64
		sick  bool
	}
	ranked := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		h := s.healthSnapshot(p.ID)
		ranked = append(ranked, scored{
			p:     p,
			score: s.score(p, task, h),
			sick:  h.Status == models.HealthUnhealthy,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].p.ID < ranked[j].p.ID
	})

	for _, r := range ranked {
		if !r.sick {
			return r.p, nil
		}
	}
	// every candidate is unhealthy; return the best anyway
	if s.logger != nil {
		s.logger.Warn("all candidate models unhealthy",
			applogger.String("task", task.TaskType),
			applogger.String("model", ranked[0].p.ID))
	}
	return ranked[0].p, nil
}

func (s *Service) matches(p *models.ModelProfile, task *models.TaskRequest) bool {
	for _, cap := range task.Capabilities {
		if !p.HasCapability(cap) {
			return false
		}
	}
	if task.MaxCostPer1K > 0 && p.OutputCostPer1K > task.MaxCostPer1K {
		return false
	}
	if task.MinContextTokens > 0 && p.ContextWindow > 0 && p.ContextWindow < task.MinContextTokens {
		return false
	}
	return true
}

// score is higher-is-better. Weights favor health, then cost, then latency.
func (s *Service) score(p *models.ModelProfile, task *models.TaskRequest, h *models.ModelHealth) float64 {
	score := float64(len(p.Capabilities)) * 0.1 // mild preference for versatile models

	// cost fit: cheaper output tokens score higher
	if p.OutputCostPer1K > 0 {
		score += 1.0 / p.OutputCostPer1K
	} else {
		score += 2.0
	}

	// latency fit matters only for latency-sensitive tasks
	if task.LatencySensitive && p.TargetLatencyMs > 0 {
		score += 1000.0 / float64(p.TargetLatencyMs)
	}

	switch h.Status {
	case models.HealthHealthy:
		score += 2.0
	case models.HealthDegraded:
		score += 0.5
	case models.HealthUnknown:
		score += 1.0 // no evidence against it
	}
	return score
}

// RecordPerformance appends a sample to the rolling window and the durable
// history store.
func (s *Service) RecordPerformance(ctx context.Context, sample *models.PerformanceSample) {
	if sample == nil || sample.ModelID == "" {
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	s.mu.Lock()
	w, ok := s.windows[sample.ModelID]
	if !ok {
		w = newSampleWindow(s.opts.HealthWindow)
		s.windows[sample.ModelID] = w
	}
	w.add(sample)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTokens(sample.ModelID, sample.InputTokens, sample.OutputTokens)
		s.metrics.RecordLatency("llm_invoke", float64(sample.LatencyMs)/1000)
		if !sample.Success {
			s.metrics.RecordError("llm_invoke")
		}
	}

	if s.perf != nil {
		if err := s.perf.Append(ctx, sample); err != nil && s.logger != nil {
			s.logger.Warn("performance sample append failed", applogger.Error(err))
		}
	}
}

// GetModelHealth returns the health snapshot for modelID.
func (s *Service) GetModelHealth(ctx context.Context, modelID string) (*models.ModelHealth, error) {
	s.mu.RLock()
	_, known := s.profiles[modelID]
	s.mu.RUnlock()
	if !known {
		return nil, fmt.Errorf("unknown model: %s", modelID)
	}
	return s.healthSnapshot(modelID), nil
}

// GetFallbackModel walks the fallback chain from modelID, skipping unhealthy
// entries. Cycle-safe. The chain is collected under the read lock and health
// is evaluated after releasing it: healthSnapshot re-enters the lock on a
// cache miss, and a nested RLock deadlocks once a writer is queued.
func (s *Service) GetFallbackModel(ctx context.Context, modelID string) (*models.ModelProfile, error) {
	s.mu.RLock()
	start, ok := s.profiles[modelID]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("unknown model: %s", modelID)
	}

	seen := map[string]bool{start.ID: true}
	chain := make([]*models.ModelProfile, 0, len(s.profiles))
	var unknown string
	next := start.FallbackID
	for next != "" && !seen[next] {
		seen[next] = true
		p, ok := s.profiles[next]
		if !ok {
			unknown = next
			break
		}
		chain = append(chain, p)
		next = p.FallbackID
	}
	s.mu.RUnlock()

	for _, p := range chain {
		if s.healthSnapshot(p.ID).Status != models.HealthUnhealthy {
			return p, nil
		}
	}
	if unknown != "" {
		return nil, fmt.Errorf("fallback chain of %s references unknown model %s", modelID, unknown)
	}
	return nil, fmt.Errorf("no usable fallback for model %s", modelID)
}

// RegisterCustomModel adds a runtime-registered profile.
func (s *Service) RegisterCustomModel(ctx context.Context, profile *models.ModelProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[profile.ID]; exists {
		return fmt.Errorf("model %s already registered", profile.ID)
	}
	if profile.FallbackID != "" {
		if _, ok := s.profiles[profile.FallbackID]; !ok {
			return fmt.Errorf("fallback model %s not registered", profile.FallbackID)
		}
	}
	p := *profile
	p.Custom = true
	s.profiles[p.ID] = &p

	if s.logger != nil {
		s.logger.Info("custom model registered", applogger.String("model", p.ID))
	}
	return nil
}

// GetProfile returns the profile for modelID.
func (s *Service) GetProfile(modelID string) (*models.ModelProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[modelID]
	return p, ok
}

func healthKey(modelID string) string { return "health:" + modelID }

var _ domsvc.ModelSelector = (*Service)(nil)
