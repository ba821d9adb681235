package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Scanner.ChainID != "solana" {
		t.Errorf("chain = %q", cfg.Scanner.ChainID)
	}
	if cfg.Scanner.ScanIntervalSec != 20 {
		t.Errorf("scan interval = %d", cfg.Scanner.ScanIntervalSec)
	}
	if cfg.Scanner.DiscoveryMode != "hybrid" {
		t.Errorf("discovery mode = %q", cfg.Scanner.DiscoveryMode)
	}
	if cfg.Scanner.DedupWindowMin != 1440 || cfg.Scanner.RearmCooldownMin != 30 {
		t.Errorf("dedup = %d rearm = %d", cfg.Scanner.DedupWindowMin, cfg.Scanner.RearmCooldownMin)
	}
	if cfg.Scanner.PoolMaxSize != 1000 || cfg.Scanner.PoolRetentionHours != 48 || cfg.Scanner.HotTopN != 150 {
		t.Errorf("pool = %+v", cfg.Scanner)
	}
	if cfg.Wallet.MaxAgeDays != 7 || cfg.Wallet.MaxTxCount != 200 || cfg.Wallet.Concurrency != 4 {
		t.Errorf("wallet = %+v", cfg.Wallet)
	}
	if len(cfg.Wallet.AllowedSources) != 3 {
		t.Errorf("allowed sources = %v", cfg.Wallet.AllowedSources)
	}
	if cfg.Performance.IntervalMin != 5 || cfg.Performance.LookbackHours != 48 || cfg.Performance.BatchSize != 100 {
		t.Errorf("performance = %+v", cfg.Performance)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	var cfg Config
	cfg.Scanner.ScanIntervalSec = 60
	cfg.Scanner.DiscoveryMode = "market_sampler"
	applyDefaults(&cfg)

	if cfg.Scanner.ScanIntervalSec != 60 {
		t.Errorf("explicit interval overwritten: %d", cfg.Scanner.ScanIntervalSec)
	}
	if cfg.Scanner.DiscoveryMode != "market_sampler" {
		t.Errorf("explicit mode overwritten: %q", cfg.Scanner.DiscoveryMode)
	}
}
