package models

import "time"

// Compliance statuses ordered by severity of the worst finding.
const (
	ComplianceApproved = "approved"
	ComplianceReview   = "review"
	ComplianceRejected = "rejected"
)

// Finding severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Regulation is a stored regulatory rule description.
type Regulation struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Jurisdiction string   `yaml:"jurisdiction" json:"jurisdiction"` // US, EU, UK, global
	Categories   []string `yaml:"categories" json:"categories"`     // trading, reporting, kyc, marketing
	Summary      string   `yaml:"summary" json:"summary"`
	Obligations  []string `yaml:"obligations" json:"obligations,omitempty"`
	SourceURL    string   `yaml:"source_url" json:"source_url,omitempty"`
	// Matching criteria: empty means "matches any".
	ActivityTypes []string `yaml:"activity_types" json:"activity_types,omitempty"`
	AssetClasses  []string `yaml:"asset_classes" json:"asset_classes,omitempty"`
	MinAmount     float64  `yaml:"min_amount" json:"min_amount,omitempty"`
	Severity      string   `yaml:"severity" json:"severity"`
}

// ComplianceCheck is the domain-level compliance request.
type ComplianceCheck struct {
	ActivityType string  // trade, recommendation, marketing, transfer
	Jurisdiction string
	AssetClass   string
	Amount       float64
	Counterparty string
	Description  string
	WithLLM      bool // attach narrative LLM assessment
}

// ComplianceFinding ties a matched regulation to its severity.
type ComplianceFinding struct {
	RegulationID string `json:"regulation_id"`
	Name         string `json:"name"`
	Severity     string `json:"severity"`
	Obligation   string `json:"obligation,omitempty"`
}

// ComplianceResult is the outcome of processing a compliance request.
type ComplianceResult struct {
	Status      string              `json:"status"`
	Findings    []ComplianceFinding `json:"findings"`
	Narrative   string              `json:"narrative,omitempty"`
	LLMAssessed bool                `json:"llm_assessed"`
	ModelID     string              `json:"model_id,omitempty"`
	CheckedAt   time.Time           `json:"checked_at"`
}
