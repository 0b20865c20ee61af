package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	icache "InvestAgent/internal/service/cache"
	applogger "InvestAgent/pkg/logger"
)

// Narrator produces the optional LLM narrative for a compliance result.
// Implemented by the analysis orchestrator; kept narrow so the agent does
// not depend on the whole LLM stack.
type Narrator interface {
	ComplianceNarrative(ctx context.Context, check *models.ComplianceCheck, findings []models.ComplianceFinding) (text, modelID string, err error)
}

// Agent matches compliance requests against the regulation store and
// optionally attaches an LLM assessment.
type Agent struct {
	store     *RegulationStore
	narrator  Narrator
	enableLLM bool
	cache     *icache.TTLCache
	cacheTTL  time.Duration
	logger    *applogger.Logger
}

// NewAgent creates a compliance agent over the given store.
func NewAgent(store *RegulationStore, narrator Narrator, enableLLM bool, cacheTTL time.Duration, logger *applogger.Logger) *Agent {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Agent{
		store:     store,
		narrator:  narrator,
		enableLLM: enableLLM,
		cache:     icache.NewTTLCache(),
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// ProcessComplianceRequest evaluates the check and returns a result.
// An LLM failure degrades to a rules-only result, never an error.
func (a *Agent) ProcessComplianceRequest(ctx context.Context, check *models.ComplianceCheck) (*models.ComplianceResult, error) {
	if check == nil {
		return nil, fmt.Errorf("compliance check is nil")
	}
	if check.ActivityType == "" || check.Jurisdiction == "" {
		return nil, fmt.Errorf("activity type and jurisdiction are required")
	}

	matched := a.store.Match(check)
	findings := make([]models.ComplianceFinding, 0, len(matched))
	for _, reg := range matched {
		f := models.ComplianceFinding{
			RegulationID: reg.ID,
			Name:         reg.Name,
			Severity:     reg.Severity,
		}
		if len(reg.Obligations) > 0 {
			f.Obligation = reg.Obligations[0]
		}
		findings = append(findings, f)
	}

	result := &models.ComplianceResult{
		Status:    statusFor(findings),
		Findings:  findings,
		CheckedAt: time.Now(),
	}

	if check.WithLLM && a.enableLLM && a.narrator != nil {
		narrative, modelID, err := a.narrator.ComplianceNarrative(ctx, check, findings)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("compliance narrative failed", applogger.Error(err))
			}
		} else {
			result.Narrative = narrative
			result.ModelID = modelID
			result.LLMAssessed = true
		}
	}

	return result, nil
}

// GetRegulationDetails returns the stored regulation by id, TTL-cached.
func (a *Agent) GetRegulationDetails(ctx context.Context, id string) (*models.Regulation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("regulation id is required")
	}
	if v, ok := a.cache.Get("reg:" + id); ok {
		if reg, ok2 := v.(*models.Regulation); ok2 {
			return reg, nil
		}
	}
	reg, ok := a.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("regulation not found: %s", id)
	}
	a.cache.Set("reg:"+id, reg, a.cacheTTL)
	return reg, nil
}

// statusFor maps the worst finding severity to a result status.
func statusFor(findings []models.ComplianceFinding) string {
	status := models.ComplianceApproved
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			return models.ComplianceRejected
		case models.SeverityWarning:
			status = models.ComplianceReview
		}
	}
	return status
}

var _ domsvc.ComplianceChecker = (*Agent)(nil)
