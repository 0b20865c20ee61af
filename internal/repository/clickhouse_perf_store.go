package repository

import (
	"context"
	"database/sql"
	"fmt"

	"InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
)

// CHPerformanceStore appends model invocation samples to ClickHouse for
// durable history; the live health window stays in-process.
type CHPerformanceStore struct {
	db    *sql.DB
	table string
}

func NewCHPerformanceStore(db *sql.DB, table string) domrepo.PerformanceStore {
	return &CHPerformanceStore{db: db, table: table}
}

func (s *CHPerformanceStore) Append(ctx context.Context, sample *models.PerformanceSample) error {
	if sample == nil || sample.ModelID == "" {
		return fmt.Errorf("sample invalid")
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, model_id, task_type, latency_ms, input_tokens, output_tokens, success) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	success := uint8(0)
	if sample.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		sample.Timestamp,
		sample.ModelID,
		sample.TaskType,
		sample.LatencyMs,
		sample.InputTokens,
		sample.OutputTokens,
		success,
	)
	return err
}
