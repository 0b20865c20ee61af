package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
)

// RedisAlertStore persists alert rules in a Redis hash so they survive
// restarts. Rule payloads are JSON.
type RedisAlertStore struct {
	client *redis.Client
	key    string
}

// NewRedisAlertStore creates the store under the given hash key.
func NewRedisAlertStore(client *redis.Client, key string) domrepo.AlertStore {
	if key == "" {
		key = "investagent:alerts:rules"
	}
	return &RedisAlertStore{client: client, key: key}
}

func (s *RedisAlertStore) Save(ctx context.Context, rule *models.AlertRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("alert rule id is required")
	}
	b, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("marshal rule: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, rule.ID, b).Err(); err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

func (s *RedisAlertStore) Get(ctx context.Context, id string) (*models.AlertRule, error) {
	b, err := s.client.HGet(ctx, s.key, id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("alert rule not found: %s", id)
		}
		return nil, fmt.Errorf("get rule: %w", err)
	}
	var rule models.AlertRule
	if err := json.Unmarshal(b, &rule); err != nil {
		return nil, fmt.Errorf("unmarshal rule: %w", err)
	}
	return &rule, nil
}

func (s *RedisAlertStore) List(ctx context.Context) ([]*models.AlertRule, error) {
	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	rules := make([]*models.AlertRule, 0, len(m))
	for _, v := range m {
		var rule models.AlertRule
		if err := json.Unmarshal([]byte(v), &rule); err != nil {
			continue // skip corrupt entries
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

func (s *RedisAlertStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert rule not found: %s", id)
	}
	return nil
}

// MemoryAlertStore is the fallback when Redis is disabled.
type MemoryAlertStore struct {
	mu    sync.RWMutex
	rules map[string]*models.AlertRule
}

func NewMemoryAlertStore() domrepo.AlertStore {
	return &MemoryAlertStore{rules: make(map[string]*models.AlertRule)}
}

func (s *MemoryAlertStore) Save(ctx context.Context, rule *models.AlertRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("alert rule id is required")
	}
	cp := *rule
	s.mu.Lock()
	s.rules[rule.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryAlertStore) Get(ctx context.Context, id string) (*models.AlertRule, error) {
	s.mu.RLock()
	r, ok := s.rules[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("alert rule not found: %s", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryAlertStore) List(ctx context.Context) ([]*models.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryAlertStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("alert rule not found: %s", id)
	}
	delete(s.rules, id)
	return nil
}
