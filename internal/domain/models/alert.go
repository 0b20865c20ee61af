package models

import (
	"fmt"
	"strings"
	"time"
)

// Alert conditions supported by the alert engine.
const (
	AlertPriceAbove = "price_above"
	AlertPriceBelow = "price_below"
	AlertPctChange  = "pct_change"
)

// Alert notification channels.
const (
	ChannelKafka   = "kafka"
	ChannelWebhook = "webhook"
)

// AlertRule defines a condition evaluated against the normalized tick flow.
type AlertRule struct {
	ID        string        `json:"id"`
	Symbol    string        `json:"symbol"`
	Condition string        `json:"condition"` // price_above, price_below, pct_change
	Threshold float64       `json:"threshold"` // price level, or percent for pct_change
	Window    time.Duration `json:"window"`    // reference window for pct_change
	Channels  []string      `json:"channels"`
	Cooldown  time.Duration `json:"cooldown"`
	Enabled   bool          `json:"enabled"`
	CreatedAt time.Time     `json:"created_at"`
}

// Validate checks rule fields before persisting. The symbol is canonicalized
// the same way NormalizeTick canonicalizes tick symbols, so rules match the
// normalized flow they are evaluated against.
func (r *AlertRule) Validate() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return fmt.Errorf("alert symbol is required")
	}
	switch r.Condition {
	case AlertPriceAbove, AlertPriceBelow:
		if r.Threshold <= 0 {
			return fmt.Errorf("threshold must be > 0 for %s", r.Condition)
		}
	case AlertPctChange:
		if r.Threshold <= 0 {
			return fmt.Errorf("threshold percent must be > 0")
		}
		if r.Window <= 0 {
			return fmt.Errorf("window is required for pct_change")
		}
	default:
		return fmt.Errorf("unknown condition: %s", r.Condition)
	}
	if len(r.Channels) == 0 {
		return fmt.Errorf("at least one notification channel is required")
	}
	for _, ch := range r.Channels {
		if ch != ChannelKafka && ch != ChannelWebhook {
			return fmt.Errorf("unknown channel: %s", ch)
		}
	}
	return nil
}

// AlertEvent is emitted when a rule fires.
type AlertEvent struct {
	RuleID    string    `json:"rule_id"`
	Symbol    string    `json:"symbol"`
	Condition string    `json:"condition"`
	Threshold float64   `json:"threshold"`
	Price     float64   `json:"price"`
	Reference float64   `json:"reference,omitempty"` // window-open price for pct_change
	Change    float64   `json:"change,omitempty"`    // observed percent change
	FiredAt   time.Time `json:"fired_at"`
}
