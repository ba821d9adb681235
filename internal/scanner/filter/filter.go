package filter

import (
	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"
)

// Metrics 从交易对快照中提炼出的过滤指标，缺失项为 nil
type Metrics struct {
	MarketCapValue *float64
	MarketCapLabel string
	Volume1h       *float64
	Change1h       *float64
	Change6h       *float64
	Change24h      *float64
}

// Result 过滤结论，reasons 为空表示通过
type Result struct {
	Passed  bool
	Reasons []string
	Metrics Metrics
}

// ExtractMetrics 提炼过滤指标，市值缺失且开启代理时用 FDV 顶替
func ExtractMetrics(pair *dexscreener.Pair, useFdvProxy bool) Metrics {
	m := Metrics{
		MarketCapValue: pair.MarketCap,
		MarketCapLabel: "Market Cap",
		Volume1h:       pair.Volume.H1,
		Change1h:       pair.PriceChange.H1,
		Change6h:       pair.PriceChange.H6,
		Change24h:      pair.PriceChange.H24,
	}
	if m.MarketCapValue == nil {
		m.MarketCapLabel = "Market Cap (missing)"
		if useFdvProxy && pair.Fdv != nil {
			m.MarketCapValue = pair.Fdv
			m.MarketCapLabel = "FDV (proxy)"
		}
	}
	return m
}

// EvaluatePair 对单个交易对跑一遍全部过滤条件，收集所有未通过原因
func EvaluatePair(pair *dexscreener.Pair, filters config.FilterThresholds) Result {
	metrics := ExtractMetrics(pair, filters.UseFdvProxy)
	var reasons []string

	if filters.RequireProfile && !pair.HasProfile() {
		reasons = append(reasons, "profile missing")
	}

	if metrics.MarketCapValue == nil {
		reasons = append(reasons, "market cap missing")
		if pair.Fdv != nil && !filters.UseFdvProxy {
			reasons = append(reasons, "fdv proxy disabled")
		}
	} else if *metrics.MarketCapValue > filters.MaxMarketCap {
		reasons = append(reasons, "market cap above max")
	}

	if metrics.Change24h == nil {
		reasons = append(reasons, "24h change missing")
	} else if *metrics.Change24h < filters.MinChange24h {
		reasons = append(reasons, "24h change below min")
	}

	if metrics.Change6h == nil {
		reasons = append(reasons, "6h change missing")
	} else if *metrics.Change6h < filters.MinChange6h {
		reasons = append(reasons, "6h change below min")
	}

	if metrics.Change1h == nil {
		reasons = append(reasons, "1h change missing")
	} else if *metrics.Change1h < filters.MinChange1h {
		reasons = append(reasons, "1h change below min")
	}

	if metrics.Volume1h == nil {
		reasons = append(reasons, "1h volume missing")
	} else if *metrics.Volume1h < filters.MinVolume1h {
		reasons = append(reasons, "1h volume below min")
	}

	return Result{Passed: len(reasons) == 0, Reasons: reasons, Metrics: metrics}
}
