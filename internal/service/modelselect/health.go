package modelselect

import (
	"sort"
	"time"

	"InvestAgent/internal/domain/models"
)

// sampleWindow is a bounded ring of recent performance samples.
type sampleWindow struct {
	samples []models.PerformanceSample
	next    int
	full    bool
}

func newSampleWindow(size int) *sampleWindow {
	return &sampleWindow{samples: make([]models.PerformanceSample, size)}
}

func (w *sampleWindow) add(s *models.PerformanceSample) {
	w.samples[w.next] = *s
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *sampleWindow) snapshot() []models.PerformanceSample {
	if w.full {
		out := make([]models.PerformanceSample, len(w.samples))
		copy(out, w.samples)
		return out
	}
	out := make([]models.PerformanceSample, w.next)
	copy(out, w.samples[:w.next])
	return out
}

// healthSnapshot computes (and briefly caches) the health view for modelID.
func (s *Service) healthSnapshot(modelID string) *models.ModelHealth {
	if v, ok := s.cache.Get(healthKey(modelID)); ok {
		if h, ok2 := v.(*models.ModelHealth); ok2 {
			return h
		}
	}

	s.mu.RLock()
	w := s.windows[modelID]
	var samples []models.PerformanceSample
	if w != nil {
		samples = w.snapshot()
	}
	s.mu.RUnlock()

	h := computeHealth(modelID, samples, s.opts)
	s.cache.Set(healthKey(modelID), h, s.opts.HealthCacheTTL)
	return h
}

func computeHealth(modelID string, samples []models.PerformanceSample, opts Options) *models.ModelHealth {
	h := &models.ModelHealth{ModelID: modelID, Status: models.HealthUnknown}
	if len(samples) == 0 {
		return h
	}

	var failures int
	var totalLatency int64
	latencies := make([]int64, 0, len(samples))
	var last time.Time
	for _, s := range samples {
		if !s.Success {
			failures++
		}
		totalLatency += s.LatencyMs
		latencies = append(latencies, s.LatencyMs)
		if s.Timestamp.After(last) {
			last = s.Timestamp
		}
	}

	n := len(samples)
	errRate := float64(failures) / float64(n)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p95 := latencies[(n*95)/100]

	h.SampleCount = n
	h.SuccessRate = 1 - errRate
	h.AvgLatencyMs = float64(totalLatency) / float64(n)
	h.P95LatencyMs = float64(p95)
	h.LastSeen = last

	switch {
	case errRate >= opts.UnhealthyErrorRate:
		h.Status = models.HealthUnhealthy
	case errRate >= opts.DegradedErrorRate:
		h.Status = models.HealthDegraded
	default:
		h.Status = models.HealthHealthy
	}
	return h
}
