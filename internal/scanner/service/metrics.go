package service

import (
	"context"
	"sort"
	"time"

	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/monitor"

	"go.uber.org/zap"
)

const (
	rateWindowSec     = 60
	alertLagKeepCount = 200
)

// MetricsService 扫描运行指标，Redis 留给跨进程读取，Prometheus 留给采集
type MetricsService struct {
	state  dao.StateDAO
	logger *zap.Logger
}

// NewMetricsService 创建指标服务
func NewMetricsService(state dao.StateDAO, logger *zap.Logger) *MetricsService {
	return &MetricsService{state: state, logger: logger}
}

// RecordCycle 记录一轮扫描
func (m *MetricsService) RecordCycle(ctx context.Context, pairsChecked, tokensChecked, eligible int, duration time.Duration) {
	monitor.ScanCycleDuration.Observe(duration.Seconds())
	monitor.ScanPairsChecked.Set(float64(pairsChecked))
	monitor.EligiblePairsLastScan.Set(float64(eligible))

	now := time.Now().Unix()
	m.state.IncrCounter(ctx, "scan_cycles")
	m.state.IncrRate(ctx, "pairs_checked", now, rateWindowSec)
	if tokensChecked > 0 {
		m.state.IncrCounterBy(ctx, "tokens_checked", int64(tokensChecked))
	}
}

// RecordOverlap 记录一次因上轮未结束而跳过的扫描
func (m *MetricsService) RecordOverlap(ctx context.Context) {
	m.state.IncrCounter(ctx, "scan_overlaps")
}

// RecordAlert 记录一次外发提醒和它相对行情时间的滞后
func (m *MetricsService) RecordAlert(ctx context.Context, lagSec int64) {
	monitor.AlertsSentTotal.Inc()
	now := time.Now().Unix()
	m.state.IncrCounter(ctx, "alerts_sent")
	m.state.IncrDaily(ctx, "alerts", dayKey(now))
	if lagSec > 0 {
		if err := m.state.PushAlertLagSample(ctx, lagSec*1000, alertLagKeepCount); err != nil {
			m.logger.Warn("failed to push alert lag sample", zap.Error(err))
		}
	}
}

// RecordSuppressed 记录一次被状态机压制的提醒
func (m *MetricsService) RecordSuppressed(ctx context.Context, reason string) {
	monitor.AlertsSuppressedTotal.WithLabelValues(reason).Inc()
	m.state.IncrCounter(ctx, "alerts_suppressed_"+reason)
}

// RecordFilterRejections 记录过滤未通过的原因
func (m *MetricsService) RecordFilterRejections(ctx context.Context, reasons []string) {
	for _, reason := range reasons {
		monitor.FilterRejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// Summary 汇总当前运行指标，供日志和健康回报使用
type Summary struct {
	ScanCycles        int64
	ScanOverlaps      int64
	AlertsSent        int64
	AlertsToday       int64
	PairsCheckedRate  int64
	AlertLagMedianSec int64
	LastAPISuccess    int64
}

func (m *MetricsService) Summary(ctx context.Context) Summary {
	now := time.Now().Unix()
	s := Summary{}
	s.ScanCycles, _ = m.state.GetCounter(ctx, "scan_cycles")
	s.ScanOverlaps, _ = m.state.GetCounter(ctx, "scan_overlaps")
	s.AlertsSent, _ = m.state.GetCounter(ctx, "alerts_sent")
	s.AlertsToday, _ = m.state.GetDaily(ctx, "alerts", dayKey(now))
	s.PairsCheckedRate, _ = m.state.RateCount(ctx, "pairs_checked", now, rateWindowSec)
	s.LastAPISuccess, _ = m.state.GetLastAPISuccess(ctx)

	if samples, err := m.state.AlertLagSamples(ctx, alertLagKeepCount); err == nil && len(samples) > 0 {
		sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
		s.AlertLagMedianSec = samples[len(samples)/2] / 1000
	}
	return s
}

func dayKey(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
