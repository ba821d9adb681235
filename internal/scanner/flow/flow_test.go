package flow

import (
	"testing"

	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"
)

func f64(v float64) *float64 { return &v }

func pairWith(buys5m, sells5m int, vol5m float64, buys1h, sells1h int, vol1h float64) *dexscreener.Pair {
	return &dexscreener.Pair{
		Txns: dexscreener.Txns{
			M5: dexscreener.TxnStat{Buys: buys5m, Sells: sells5m},
			H1: dexscreener.TxnStat{Buys: buys1h, Sells: sells1h},
		},
		Volume: dexscreener.Volume{M5: f64(vol5m), H1: f64(vol1h)},
	}
}

func TestComputeBothGatesHighScore(t *testing.T) {
	// 5m: 14买/4卖, 均买 15400/14=1100, 压力 3.5 -> 30+20+25+15+20 = 100 分封顶
	// 1h: 90买/40卖, 均买 90000/90=1000, 压力 2.25 -> 再加也被钳到 100
	pair := pairWith(14, 4, 15_400, 90, 40, 90_000)
	snap := Compute(pair, config.FlowConfig{}, nil)
	if !snap.Gate5m || !snap.Gate1h {
		t.Fatalf("gates = %v/%v", snap.Gate5m, snap.Gate1h)
	}
	if snap.Score != 100 {
		t.Errorf("score = %d, want 100", snap.Score)
	}
	if snap.Label != LabelTradeEligible {
		t.Errorf("label = %q", snap.Label)
	}
}

func TestComputeNoGatesZero(t *testing.T) {
	pair := pairWith(2, 5, 500, 10, 20, 3_000)
	snap := Compute(pair, config.FlowConfig{}, nil)
	if snap.Gate5m || snap.Gate1h {
		t.Fatalf("gates = %v/%v", snap.Gate5m, snap.Gate1h)
	}
	if snap.Score != 0 {
		t.Errorf("score = %d, want 0", snap.Score)
	}
	if snap.Label != LabelIgnore {
		t.Errorf("label = %q", snap.Label)
	}
}

func TestComputeGate5mRequiresBuyDominance(t *testing.T) {
	// 买量达标但买卖持平，闸门不开
	pair := pairWith(8, 8, 20_000, 0, 0, 0)
	snap := Compute(pair, config.FlowConfig{}, nil)
	if snap.Gate5m {
		t.Error("gate must stay closed when buys do not exceed sells")
	}
}

func TestComputeOversizedAvgBuyPenalty(t *testing.T) {
	// 6买/1卖, 均买 36000/6=6000 超出区间罚 20 分
	// 压力 6 给 25+15, 买量档位分拿不到, 合计 20
	pair := pairWith(6, 1, 36_000, 0, 0, 0)
	snap := Compute(pair, config.FlowConfig{}, nil)
	if !snap.Gate5m {
		t.Fatal("gate expected open")
	}
	if snap.Score != 20 {
		t.Errorf("score = %d, want 20", snap.Score)
	}
}

func TestComputeWatchLabel(t *testing.T) {
	// 1h 闸门 30 分, 压力 1.5 给 15, 均买约 1111 给 15, 合计 60
	pair := pairWith(0, 0, 0, 45, 30, 50_000)
	snap := Compute(pair, config.FlowConfig{}, nil)
	if !snap.Gate1h {
		t.Fatal("gate expected open")
	}
	if snap.Score != 60 {
		t.Errorf("score = %d, want 60", snap.Score)
	}
	if snap.Label != LabelWatch {
		t.Errorf("label = %q", snap.Label)
	}
}

func TestComputeHolderBoost(t *testing.T) {
	pair := pairWith(0, 0, 0, 45, 30, 50_000)
	cfg := config.FlowConfig{MinHolders: 100}

	holders := 500
	snap := Compute(pair, cfg, &holders)
	if snap.HolderBoost != 4 {
		t.Errorf("boost = %d, want 4", snap.HolderBoost)
	}

	// 加成有上限
	holders = 100_000
	snap = Compute(pair, cfg, &holders)
	if snap.HolderBoost != 10 {
		t.Errorf("boost = %d, want cap 10", snap.HolderBoost)
	}

	// 没过闸门就没有加成
	dead := pairWith(1, 5, 100, 2, 10, 500)
	snap = Compute(dead, cfg, &holders)
	if snap.HolderBoost != 0 {
		t.Errorf("boost = %d, want 0 without gates", snap.HolderBoost)
	}
}

func TestComputePartialOnMissingVolume(t *testing.T) {
	pair := pairWith(10, 2, 20_000, 50, 20, 60_000)
	pair.Volume.M5 = nil
	snap := Compute(pair, config.FlowConfig{}, nil)
	if !snap.Partial {
		t.Error("expected partial snapshot")
	}
	if snap.Gate5m {
		t.Error("gate must not open on missing volume")
	}
}
