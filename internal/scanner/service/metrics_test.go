package service

import (
	"context"
	"testing"
	"time"

	"trench-radar/internal/scanner/model"

	"go.uber.org/zap"
)

type memStateDAO struct {
	counters map[string]int64
	daily    map[string]int64
	lags     []int64
}

func newMemStateDAO() *memStateDAO {
	return &memStateDAO{counters: map[string]int64{}, daily: map[string]int64{}}
}

func (m *memStateDAO) IncrCounter(ctx context.Context, name string) (int64, error) {
	m.counters[name]++
	return m.counters[name], nil
}

func (m *memStateDAO) IncrCounterBy(ctx context.Context, name string, delta int64) (int64, error) {
	m.counters[name] += delta
	return m.counters[name], nil
}

func (m *memStateDAO) GetCounter(ctx context.Context, name string) (int64, error) {
	return m.counters[name], nil
}

func (m *memStateDAO) IncrRate(ctx context.Context, name string, now int64, windowSec int) error {
	return nil
}

func (m *memStateDAO) RateCount(ctx context.Context, name string, now int64, windowSec int) (int64, error) {
	return 0, nil
}

func (m *memStateDAO) IncrDaily(ctx context.Context, name, day string) (int64, error) {
	m.daily[name+":"+day]++
	return m.daily[name+":"+day], nil
}

func (m *memStateDAO) GetDaily(ctx context.Context, name, day string) (int64, error) {
	return m.daily[name+":"+day], nil
}

func (m *memStateDAO) PushAlertLagSample(ctx context.Context, lagMs int64, keep int64) error {
	m.lags = append(m.lags, lagMs)
	return nil
}

func (m *memStateDAO) AlertLagSamples(ctx context.Context, limit int64) ([]int64, error) {
	return m.lags, nil
}

func (m *memStateDAO) SetWalletReport(ctx context.Context, report *model.WalletReport, ttl time.Duration) error {
	return nil
}

func (m *memStateDAO) GetWalletReport(ctx context.Context, walletAddress string) (*model.WalletReport, error) {
	return nil, nil
}

func (m *memStateDAO) SetLastAPISuccess(ctx context.Context, ts int64) error { return nil }

func (m *memStateDAO) GetLastAPISuccess(ctx context.Context) (int64, error) { return 0, nil }

func (m *memStateDAO) SetPaused(ctx context.Context, paused bool) error { return nil }

func (m *memStateDAO) IsPaused(ctx context.Context) (bool, error) { return false, nil }

func (m *memStateDAO) SetMutedUntil(ctx context.Context, until int64) error { return nil }

func (m *memStateDAO) MutedUntil(ctx context.Context) (int64, error) { return 0, nil }

func TestSummaryAggregatesCounters(t *testing.T) {
	ctx := context.Background()
	state := newMemStateDAO()
	svc := NewMetricsService(state, zap.NewNop())

	svc.RecordCycle(ctx, 120, 40, 3, 2*time.Second)
	svc.RecordCycle(ctx, 80, 25, 1, time.Second)
	svc.RecordOverlap(ctx)
	svc.RecordAlert(ctx, 90)
	svc.RecordAlert(ctx, 30)
	svc.RecordAlert(ctx, 60)

	s := svc.Summary(ctx)
	if s.ScanCycles != 2 {
		t.Errorf("cycles = %d", s.ScanCycles)
	}
	if s.ScanOverlaps != 1 {
		t.Errorf("overlaps = %d", s.ScanOverlaps)
	}
	if s.AlertsSent != 3 {
		t.Errorf("alerts = %d", s.AlertsSent)
	}
	if s.AlertsToday != 3 {
		t.Errorf("alerts today = %d", s.AlertsToday)
	}
	// 样本 30/60/90 秒, 中位数 60
	if s.AlertLagMedianSec != 60 {
		t.Errorf("lag median = %d", s.AlertLagMedianSec)
	}
	if counted := state.counters["tokens_checked"]; counted != 65 {
		t.Errorf("tokens checked = %d", counted)
	}
}

func TestRecordSuppressedCounter(t *testing.T) {
	ctx := context.Background()
	state := newMemStateDAO()
	svc := NewMetricsService(state, zap.NewNop())

	svc.RecordSuppressed(ctx, "dedupe_window")
	svc.RecordSuppressed(ctx, "dedupe_window")
	svc.RecordSuppressed(ctx, "muted")

	if state.counters["alerts_suppressed_dedupe_window"] != 2 {
		t.Errorf("dedupe suppressed = %d", state.counters["alerts_suppressed_dedupe_window"])
	}
	if state.counters["alerts_suppressed_muted"] != 1 {
		t.Errorf("muted suppressed = %d", state.counters["alerts_suppressed_muted"])
	}
}
