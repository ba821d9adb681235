package flow

import (
	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"
)

const (
	LabelTradeEligible = "Trade-Eligible"
	LabelWatch         = "Watch"
	LabelIgnore        = "Ignore"

	holderBoostMax = 10
)

// Snapshot 资金流评分结果及其全部输入指标
type Snapshot struct {
	Score         int     `json:"score"`
	MaxScore      int     `json:"max_score"`
	Label         string  `json:"label"`
	Buys5m        int     `json:"buys_5m"`
	Sells5m       int     `json:"sells_5m"`
	Volume5m      float64 `json:"volume_5m"`
	BuyPressure   float64 `json:"buy_pressure"`
	AvgBuy        float64 `json:"avg_buy"`
	Buys1h        int     `json:"buys_1h"`
	Sells1h       int     `json:"sells_1h"`
	Volume1h      float64 `json:"volume_1h"`
	BuyPressure1h float64 `json:"buy_pressure_1h"`
	AvgBuy1h      float64 `json:"avg_buy_1h"`
	Gate5m        bool    `json:"gate_5m"`
	Gate1h        bool    `json:"gate_1h"`
	HolderBoost   int     `json:"holder_boost"`
	Partial       bool    `json:"partial"`
}

// Compute 按买卖笔数和成交额给交易对打分，0到100
// holders 为持有人数量，未知时传 nil
func Compute(pair *dexscreener.Pair, cfg config.FlowConfig, holders *int) Snapshot {
	minBuys5m := cfg.MinBuys5m
	if minBuys5m <= 0 {
		minBuys5m = 6
	}
	minVolume5m := cfg.MinVolume5m
	if minVolume5m <= 0 {
		minVolume5m = 10000
	}
	minBuys1h := cfg.MinBuys1h
	if minBuys1h <= 0 {
		minBuys1h = 40
	}
	minVolume1h := cfg.MinVolume1h
	if minVolume1h <= 0 {
		minVolume1h = 50000
	}

	buys5m := pair.Txns.M5.Buys
	sells5m := pair.Txns.M5.Sells
	buys1h := pair.Txns.H1.Buys
	sells1h := pair.Txns.H1.Sells

	hasVolume5m := pair.Volume.M5 != nil
	hasVolume1h := pair.Volume.H1 != nil
	partial := !hasVolume5m || !hasVolume1h

	var volume5m, volume1h float64
	if hasVolume5m {
		volume5m = *pair.Volume.M5
	}
	if hasVolume1h {
		volume1h = *pair.Volume.H1
	}

	buyPressure := float64(buys5m) / float64(max(1, sells5m))
	avgBuy := volume5m / float64(max(1, buys5m))
	buyPressure1h := float64(buys1h) / float64(max(1, sells1h))
	avgBuy1h := volume1h / float64(max(1, buys1h))

	gate5m := hasVolume5m &&
		buys5m >= minBuys5m &&
		volume5m >= minVolume5m &&
		buys5m > sells5m
	gate1h := hasVolume1h &&
		buys1h >= minBuys1h &&
		volume1h >= minVolume1h &&
		buys1h > sells1h

	score := 0
	if gate5m {
		if buys5m >= 8 {
			score += 30
		}
		if buys5m >= 12 {
			score += 20
		}
		if buyPressure >= 1.8 {
			score += 25
		}
		if buyPressure >= 2.5 {
			score += 15
		}
		if avgBuy >= 300 && avgBuy <= 2000 {
			score += 20
		} else if avgBuy < 150 || avgBuy > 4000 {
			score -= 20
		}
	}
	if gate1h {
		score += 30
		if buys1h >= 80 {
			score += 15
		}
		if buyPressure1h >= 1.4 {
			score += 15
		}
		if buyPressure1h >= 1.8 {
			score += 10
		}
		if avgBuy1h >= 300 && avgBuy1h <= 2500 {
			score += 15
		} else if avgBuy1h < 150 || avgBuy1h > 5000 {
			score -= 15
		}
	}

	// 持有人加成只在至少过了一道闸门时生效
	holderBoost := 0
	if holders != nil && cfg.MinHolders > 0 && *holders >= cfg.MinHolders && (gate5m || gate1h) {
		holderBoost = (*holders - cfg.MinHolders) / cfg.MinHolders
		if holderBoost > holderBoostMax {
			holderBoost = holderBoostMax
		}
		score += holderBoost
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	label := LabelIgnore
	if score >= 75 {
		label = LabelTradeEligible
	} else if score >= 55 {
		label = LabelWatch
	}

	return Snapshot{
		Score:         score,
		MaxScore:      100,
		Label:         label,
		Buys5m:        buys5m,
		Sells5m:       sells5m,
		Volume5m:      volume5m,
		BuyPressure:   buyPressure,
		AvgBuy:        avgBuy,
		Buys1h:        buys1h,
		Sells1h:       sells1h,
		Volume1h:      volume1h,
		BuyPressure1h: buyPressure1h,
		AvgBuy1h:      avgBuy1h,
		Gate5m:        gate5m,
		Gate1h:        gate1h,
		HolderBoost:   holderBoost,
		Partial:       partial,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
