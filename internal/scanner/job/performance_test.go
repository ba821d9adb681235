package job

import (
	"context"
	"testing"
	"time"

	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/model"
	"trench-radar/pkg/dexscreener"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type fakePairFetcher struct {
	pairs map[string]*dexscreener.Pair
}

func (f *fakePairFetcher) PairDetail(ctx context.Context, chainID, pairAddress string, ttl time.Duration) (*dexscreener.Pair, error) {
	return f.pairs[pairAddress], nil
}

func TestPerformanceRaisesMaxAndStampsMultiples(t *testing.T) {
	cfg := testConfig()
	cfg.Performance.LookbackHours = 48
	cfg.Performance.BatchSize = 100

	called := 0.001
	maxSeen := 0.0015
	tokens := &fakeTokenDAO{eligible: []*model.Token{{
		TokenAddress: "MEME111",
		ChainID:      "solana",
		PairAddress:  "PAIR1",
		CalledPrice:  &called,
		MaxPrice:     &maxSeen,
	}}}
	daos := &dao.DAOManager{TokenDAO: tokens}

	// 当前价 0.0035, 相对起始价 3.5 倍
	mcap := 900_000.0
	fetcher := &fakePairFetcher{pairs: map[string]*dexscreener.Pair{
		"PAIR1": {PairAddress: "PAIR1", PriceUsd: "0.0035", MarketCap: &mcap},
	}}

	perf := NewPerformance(cfg, daos, fetcher, zap.NewNop())
	if err := perf.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	updates := tokens.perfUpdates["MEME111"]
	if updates == nil {
		t.Fatal("no performance update written")
	}
	if updates["max_price"] != 0.0035 {
		t.Errorf("max_price = %v", updates["max_price"])
	}
	if updates["max_market_cap"] != 900_000.0 {
		t.Errorf("max_market_cap = %v", updates["max_market_cap"])
	}
	if _, ok := updates["hit_2x_at"]; !ok {
		t.Error("2x stamp missing")
	}
	if _, ok := updates["hit_3x_at"]; !ok {
		t.Error("3x stamp missing")
	}
	if _, ok := updates["hit_5x_at"]; ok {
		t.Error("5x must not be stamped at 3.5x")
	}
	if _, ok := updates["last_checked_at"]; !ok {
		t.Error("check time must be stamped so the batch rotates")
	}
}

func TestPerformanceNeverLowersMax(t *testing.T) {
	cfg := testConfig()
	cfg.Performance.LookbackHours = 48
	cfg.Performance.BatchSize = 100

	maxSeen := 0.01
	hit2x := int64(1000)
	called := 0.004
	tokens := &fakeTokenDAO{eligible: []*model.Token{{
		TokenAddress: "MEME111",
		ChainID:      "solana",
		PairAddress:  "PAIR1",
		CalledPrice:  &called,
		MaxPrice:     &maxSeen,
		Hit2xAt:      &hit2x,
	}}}
	daos := &dao.DAOManager{TokenDAO: tokens}

	// 价格回落到 0.008, 仍在 2 倍之上但低于历史最高
	fetcher := &fakePairFetcher{pairs: map[string]*dexscreener.Pair{
		"PAIR1": {PairAddress: "PAIR1", PriceUsd: "0.008"},
	}}

	perf := NewPerformance(cfg, daos, fetcher, zap.NewNop())
	if err := perf.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	updates := tokens.perfUpdates["MEME111"]
	if updates == nil {
		t.Fatal("check time must still be stamped")
	}
	if _, ok := updates["max_price"]; ok {
		t.Error("a price below the recorded max must not lower it")
	}
	if _, ok := updates["hit_2x_at"]; ok {
		t.Error("an existing multiple stamp must not be rewritten")
	}
	if len(updates) != 1 {
		t.Errorf("only the check time should change, got %v", updates)
	}
}

func TestCalledPriceBackfill(t *testing.T) {
	snapshot, err := sonic.Marshal(dexscreener.Pair{PairAddress: "PAIR1", PriceUsd: "0.0012"})
	if err != nil {
		t.Fatal(err)
	}
	tokens := &fakeTokenDAO{missing: []*model.Token{{
		TokenAddress:          "MEME111",
		EligibleFirstSnapshot: datatypes.JSON(snapshot),
	}}}
	state := newFakeStateDAO()
	daos := &dao.DAOManager{TokenDAO: tokens, StateDAO: state}

	backfill := NewCalledPriceBackfill(daos, zap.NewNop())
	if err := backfill.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	updates := tokens.perfUpdates["MEME111"]
	if updates == nil {
		t.Fatal("backfill wrote nothing")
	}
	if updates["called_price"] != 0.0012 {
		t.Errorf("called_price = %v", updates["called_price"])
	}

	// 完成标记落下后再跑不会重复写
	tokens.perfUpdates = nil
	if err := backfill.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tokens.perfUpdates != nil {
		t.Error("second run must be a no-op")
	}
}

func TestCalledPriceBackfillDrainsAllBatches(t *testing.T) {
	snapA, _ := sonic.Marshal(dexscreener.Pair{PairAddress: "PAIR1", PriceUsd: "0.001"})
	snapB, _ := sonic.Marshal(dexscreener.Pair{PairAddress: "PAIR2", PriceUsd: "0.002"})
	snapC, _ := sonic.Marshal(dexscreener.Pair{PairAddress: "PAIR3", PriceUsd: "0.003"})
	tokens := &fakeTokenDAO{missing: []*model.Token{
		{TokenAddress: "AAA", EligibleFirstSnapshot: datatypes.JSON(snapA)},
		{TokenAddress: "BBB", EligibleFirstSnapshot: datatypes.JSON(snapB)},
		{TokenAddress: "CCC", EligibleFirstSnapshot: datatypes.JSON(snapC)},
	}}
	state := newFakeStateDAO()
	daos := &dao.DAOManager{TokenDAO: tokens, StateDAO: state}

	backfill := NewCalledPriceBackfill(daos, zap.NewNop())
	// 单批容量压到 1, 三条记录要跑满三个批次
	backfill.batchSize = 1
	if err := backfill.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for addr, want := range map[string]float64{"AAA": 0.001, "BBB": 0.002, "CCC": 0.003} {
		updates := tokens.perfUpdates[addr]
		if updates == nil {
			t.Fatalf("%s never backfilled", addr)
		}
		if updates["called_price"] != want {
			t.Errorf("%s called_price = %v, want %v", addr, updates["called_price"], want)
		}
	}
	if state.counter("called_price_backfill_done") == 0 {
		t.Error("done flag missing after the drain")
	}
}

func TestCalledPriceBackfillStopsOnUnfillableRows(t *testing.T) {
	// 没有任何可解析价格的快照, 不能因为行还在就无限捞同一批
	tokens := &fakeTokenDAO{missing: []*model.Token{
		{TokenAddress: "AAA"},
	}}
	state := newFakeStateDAO()
	daos := &dao.DAOManager{TokenDAO: tokens, StateDAO: state}

	backfill := NewCalledPriceBackfill(daos, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- backfill.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backfill did not terminate with unfillable rows")
	}
	if state.counter("called_price_backfill_done") == 0 {
		t.Error("done flag missing")
	}
}
