package models

import (
	"testing"
	"time"
)

func TestNormalizeTickUppercasesSymbol(t *testing.T) {
	got, err := NormalizeTick(&Tick{Symbol: " aapl ", Timestamp: 1700000000, Price: 190.5, Volume: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Fatalf("expected AAPL, got %s", got.Symbol)
	}
}

func TestNormalizeTickFoldsMilliseconds(t *testing.T) {
	got, err := NormalizeTick(&Tick{Symbol: "MSFT", Timestamp: 1700000000123, Price: 1, Volume: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Timestamp != 1700000000 {
		t.Fatalf("expected seconds, got %d", got.Timestamp)
	}
}

func TestNormalizeTickRejectsInvalid(t *testing.T) {
	cases := []*Tick{
		nil,
		{Symbol: "", Timestamp: 1700000000, Price: 1},
		{Symbol: "AAPL", Timestamp: 0, Price: 1},
		{Symbol: "AAPL", Timestamp: 1700000000, Price: -1},
		{Symbol: "AAPL", Timestamp: 1700000000, Price: 1, Volume: -5},
	}
	for i, tc := range cases {
		if _, err := NormalizeTick(tc); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestNormalizeTickDoesNotMutateInput(t *testing.T) {
	in := &Tick{Symbol: "btc", Timestamp: 1700000000, Price: 1, Volume: 1}
	if _, err := NormalizeTick(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Symbol != "btc" {
		t.Fatalf("input mutated: %s", in.Symbol)
	}
}

func TestFeedConfigValidate(t *testing.T) {
	cfg := &FeedConfig{Provider: "finnhub", Symbols: []string{"AAPL"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []*FeedConfig{
		{Symbols: []string{"AAPL"}},
		{Provider: "finnhub"},
		{Provider: "finnhub", Symbols: []string{" "}},
		{Provider: "finnhub", Symbols: []string{"AAPL"}, ReconnectDelay: -time.Second},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestAlertRuleValidate(t *testing.T) {
	ok := &AlertRule{
		Symbol:    "AAPL",
		Condition: AlertPriceAbove,
		Threshold: 200,
		Channels:  []string{ChannelKafka},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pct := &AlertRule{
		Symbol:    "AAPL",
		Condition: AlertPctChange,
		Threshold: 5,
		Channels:  []string{ChannelWebhook},
	}
	if err := pct.Validate(); err == nil {
		t.Fatalf("pct_change without window should fail")
	}
	pct.Window = 5 * time.Minute
	if err := pct.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &AlertRule{Symbol: "AAPL", Condition: "price_equals", Threshold: 1, Channels: []string{ChannelKafka}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown condition should fail")
	}
}

func TestAlertRuleValidateCanonicalizesSymbol(t *testing.T) {
	r := &AlertRule{
		Symbol:    " btcusdt ",
		Condition: AlertPriceAbove,
		Threshold: 10,
		Channels:  []string{ChannelKafka},
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Ticks are upper-cased by NormalizeTick; rules must match them.
	if r.Symbol != "BTCUSDT" {
		t.Fatalf("symbol not canonicalized: %q", r.Symbol)
	}

	blank := &AlertRule{Symbol: "   ", Condition: AlertPriceAbove, Threshold: 10, Channels: []string{ChannelKafka}}
	if err := blank.Validate(); err == nil {
		t.Fatalf("whitespace-only symbol should fail")
	}
}
