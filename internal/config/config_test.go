package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent-dir/no-config.yaml")
	if err == nil {
		t.Fatal("explicit missing config file should fail")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("loading without a config file should use defaults: %v", err)
	}

	if cfg.Collector.Interval != 30*time.Second {
		t.Fatalf("default interval should be 30s, got %s", cfg.Collector.Interval)
	}
	if cfg.Collector.Cooldown != 10*time.Second {
		t.Fatalf("default cooldown should be 10s, got %s", cfg.Collector.Cooldown)
	}
	if cfg.Alerting.Threshold != 50000.0 {
		t.Fatalf("default threshold should be 50000, got %f", cfg.Alerting.Threshold)
	}
	if cfg.Search.URL == "" {
		t.Fatal("default search url should be set")
	}
	if cfg.Database.DSN == "" {
		t.Fatal("default database dsn should be set")
	}
}

func TestValidateRejectsBadExchange(t *testing.T) {
	cfg := &Config{
		Collector: CollectorConfig{Interval: time.Second, Cooldown: time.Second},
		Export:    ExportConfig{MaxDataPoints: 10},
		Exchanges: []ExchangeConfig{
			{Name: "gdax", Kind: "rest", Products: map[string]string{"BTC-USD": "gdax-btc-usd"}},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("rest exchange without base_url should fail validation")
	}

	cfg.Exchanges[0].Kind = "ftp"
	cfg.Exchanges[0].BaseURL = "http://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown exchange kind should fail validation")
	}

	cfg.Exchanges[0].Kind = "sim"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sim exchange should validate: %v", err)
	}
}
