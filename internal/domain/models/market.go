package models

import (
	"fmt"
	"strings"
	"time"
)

// Tick is a single normalized market data point.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
	Source    string // provider name that produced the tick
}

// Candle represents an OHLCV record aggregated from ticks.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FeedConfig describes a market data feed connection.
type FeedConfig struct {
	Provider            string        `yaml:"provider"`
	Symbols             []string      `yaml:"symbols"`
	ReconnectDelay      time.Duration `yaml:"reconnect_delay"`
	PingInterval        time.Duration `yaml:"ping_interval"`
	AggregationInterval time.Duration `yaml:"aggregation_interval"`
	RetentionDays       int           `yaml:"retention_days"`
}

// Validate checks feed configuration before a connection is attempted.
func (c *FeedConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("feed provider is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("feed symbols cannot be empty")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("feed symbols contain an empty entry")
		}
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect_delay must be >= 0")
	}
	if c.AggregationInterval < 0 {
		return fmt.Errorf("aggregation_interval must be >= 0")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must be >= 0")
	}
	return nil
}

// NormalizeTick canonicalizes a raw tick: upper-cases the symbol, folds
// millisecond timestamps to seconds, and rejects unusable records.
func NormalizeTick(t *Tick) (*Tick, error) {
	if t == nil {
		return nil, fmt.Errorf("tick is nil")
	}
	out := *t
	out.Symbol = strings.ToUpper(strings.TrimSpace(out.Symbol))
	if out.Symbol == "" {
		return nil, fmt.Errorf("symbol empty")
	}
	if out.Timestamp > 1e11 { // ms
		out.Timestamp /= 1000
	}
	if out.Timestamp <= 0 {
		return nil, fmt.Errorf("timestamp invalid")
	}
	if out.Price < 0 || out.Volume < 0 {
		return nil, fmt.Errorf("negative price/volume")
	}
	return &out, nil
}
