package filter

import (
	"testing"

	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"
)

func f64(v float64) *float64 { return &v }

func defaultFilters() config.FilterThresholds {
	return config.FilterThresholds{
		RequireProfile: true,
		UseFdvProxy:    true,
		MaxMarketCap:   1_000_000,
		MinChange24h:   0,
		MinChange6h:    0,
		MinChange1h:    0,
		MinVolume1h:    20_000,
	}
}

func goodPair() *dexscreener.Pair {
	return &dexscreener.Pair{
		ChainID:     "solana",
		PairAddress: "PAIR1",
		Info:        &dexscreener.Info{ImageURL: "https://img"},
		MarketCap:   f64(500_000),
		Volume:      dexscreener.Volume{H1: f64(50_000), M5: f64(12_000)},
		PriceChange: dexscreener.PriceChange{H1: f64(5), H6: f64(10), H24: f64(20)},
	}
}

func TestEvaluatePairPasses(t *testing.T) {
	result := EvaluatePair(goodPair(), defaultFilters())
	if !result.Passed {
		t.Fatalf("expected pass, got reasons %v", result.Reasons)
	}
	if result.Metrics.MarketCapLabel != "Market Cap" {
		t.Errorf("label = %q", result.Metrics.MarketCapLabel)
	}
}

func TestEvaluatePairReasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *dexscreener.Pair)
		want   string
	}{
		{"profile missing", func(p *dexscreener.Pair) { p.Info = nil }, "profile missing"},
		{"market cap above max", func(p *dexscreener.Pair) { p.MarketCap = f64(2_000_000) }, "market cap above max"},
		{"24h change missing", func(p *dexscreener.Pair) { p.PriceChange.H24 = nil }, "24h change missing"},
		{"24h change below min", func(p *dexscreener.Pair) { p.PriceChange.H24 = f64(-1) }, "24h change below min"},
		{"6h change missing", func(p *dexscreener.Pair) { p.PriceChange.H6 = nil }, "6h change missing"},
		{"1h change below min", func(p *dexscreener.Pair) { p.PriceChange.H1 = f64(-0.5) }, "1h change below min"},
		{"1h volume missing", func(p *dexscreener.Pair) { p.Volume.H1 = nil }, "1h volume missing"},
		{"1h volume below min", func(p *dexscreener.Pair) { p.Volume.H1 = f64(100) }, "1h volume below min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := goodPair()
			tt.mutate(pair)
			result := EvaluatePair(pair, defaultFilters())
			if result.Passed {
				t.Fatal("expected rejection")
			}
			found := false
			for _, r := range result.Reasons {
				if r == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("reasons = %v, want to contain %q", result.Reasons, tt.want)
			}
		})
	}
}

func TestEvaluatePairFdvProxy(t *testing.T) {
	pair := goodPair()
	pair.MarketCap = nil
	pair.Fdv = f64(400_000)

	result := EvaluatePair(pair, defaultFilters())
	if !result.Passed {
		t.Fatalf("expected pass via fdv proxy, got %v", result.Reasons)
	}
	if result.Metrics.MarketCapLabel != "FDV (proxy)" {
		t.Errorf("label = %q", result.Metrics.MarketCapLabel)
	}

	filters := defaultFilters()
	filters.UseFdvProxy = false
	result = EvaluatePair(pair, filters)
	if result.Passed {
		t.Fatal("expected rejection with proxy disabled")
	}
	wantMissing, wantDisabled := false, false
	for _, r := range result.Reasons {
		if r == "market cap missing" {
			wantMissing = true
		}
		if r == "fdv proxy disabled" {
			wantDisabled = true
		}
	}
	if !wantMissing || !wantDisabled {
		t.Errorf("reasons = %v", result.Reasons)
	}
}

func TestEvaluatePairProfileOptional(t *testing.T) {
	pair := goodPair()
	pair.Info = nil
	filters := defaultFilters()
	filters.RequireProfile = false
	result := EvaluatePair(pair, filters)
	if !result.Passed {
		t.Errorf("expected pass without profile requirement, got %v", result.Reasons)
	}
}

func TestExtractMetricsMissingMarketCap(t *testing.T) {
	pair := goodPair()
	pair.MarketCap = nil
	m := ExtractMetrics(pair, false)
	if m.MarketCapValue != nil {
		t.Error("expected nil market cap")
	}
	if m.MarketCapLabel != "Market Cap (missing)" {
		t.Errorf("label = %q", m.MarketCapLabel)
	}
}
