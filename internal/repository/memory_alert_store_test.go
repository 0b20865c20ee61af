package repository

import (
	"context"
	"testing"
	"time"

	"InvestAgent/internal/domain/models"
)

func memRule(id string) *models.AlertRule {
	return &models.AlertRule{
		ID:        id,
		Symbol:    "AAPL",
		Condition: models.AlertPriceAbove,
		Threshold: 200,
		Channels:  []string{models.ChannelKafka},
		Cooldown:  time.Minute,
		Enabled:   true,
	}
}

func TestMemoryAlertStoreCRUD(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	if err := s.Save(ctx, memRule("r1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, memRule("r2")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "r1" || got.Symbol != "AAPL" {
		t.Fatalf("unexpected rule: %+v", got)
	}

	rules, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "r1"); err == nil {
		t.Fatalf("expected not-found after delete")
	}
	if err := s.Delete(ctx, "r1"); err == nil {
		t.Fatalf("expected not-found for double delete")
	}
}

func TestMemoryAlertStoreRejectsMissingID(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()
	if err := s.Save(ctx, nil); err == nil {
		t.Fatalf("expected error for nil rule")
	}
	if err := s.Save(ctx, &models.AlertRule{Symbol: "AAPL"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestMemoryAlertStoreCopiesOnReadAndWrite(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	in := memRule("r1")
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	in.Threshold = 999 // must not leak into the store

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Threshold != 200 {
		t.Fatalf("stored rule aliased caller memory: %+v", got)
	}

	got.Enabled = false
	again, _ := s.Get(ctx, "r1")
	if !again.Enabled {
		t.Fatalf("returned rule aliased store memory")
	}
}
