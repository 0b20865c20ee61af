package compliance

import (
	"strings"
	"sync"

	"InvestAgent/internal/domain/models"
)

// RegulationStore is an in-memory index of regulation records, seeded from
// configuration.
type RegulationStore struct {
	mu   sync.RWMutex
	byID map[string]*models.Regulation
	all  []*models.Regulation
}

// NewRegulationStore builds the store from seed records. Later duplicates
// replace earlier ones.
func NewRegulationStore(seed []models.Regulation) *RegulationStore {
	s := &RegulationStore{byID: make(map[string]*models.Regulation, len(seed))}
	for i := range seed {
		r := seed[i]
		if r.ID == "" {
			continue
		}
		if r.Severity == "" {
			r.Severity = models.SeverityInfo
		}
		if _, dup := s.byID[r.ID]; !dup {
			s.all = append(s.all, &r)
		} else {
			for j, existing := range s.all {
				if existing.ID == r.ID {
					s.all[j] = &r
					break
				}
			}
		}
		s.byID[r.ID] = &r
	}
	return s
}

// Get returns the regulation by id.
func (s *RegulationStore) Get(id string) (*models.Regulation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

// Search returns regulations for a jurisdiction, optionally filtered by
// category. Jurisdiction "global" regulations always apply.
func (s *RegulationStore) Search(jurisdiction, category string) []*models.Regulation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Regulation
	for _, r := range s.all {
		if !jurisdictionMatches(r.Jurisdiction, jurisdiction) {
			continue
		}
		if category != "" && !containsFold(r.Categories, category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Match returns regulations applicable to the check: jurisdiction plus any
// declared activity-type, asset-class, and amount criteria.
func (s *RegulationStore) Match(check *models.ComplianceCheck) []*models.Regulation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Regulation
	for _, r := range s.all {
		if !jurisdictionMatches(r.Jurisdiction, check.Jurisdiction) {
			continue
		}
		if len(r.ActivityTypes) > 0 && !containsFold(r.ActivityTypes, check.ActivityType) {
			continue
		}
		if len(r.AssetClasses) > 0 && !containsFold(r.AssetClasses, check.AssetClass) {
			continue
		}
		if r.MinAmount > 0 && check.Amount < r.MinAmount {
			continue
		}
		out = append(out, r)
	}
	return out
}

func jurisdictionMatches(ruleJur, checkJur string) bool {
	if strings.EqualFold(ruleJur, "global") {
		return true
	}
	return strings.EqualFold(ruleJur, checkJur)
}

func containsFold(xs []string, want string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, want) {
			return true
		}
	}
	return false
}
