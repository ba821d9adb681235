package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpstreamRequestsTotal 上游请求相关
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to each upstream API.",
		},
		[]string{"upstream"},
	)
	UpstreamRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_rate_limited_total",
			Help: "Total number of 429 responses from each upstream API.",
		},
		[]string{"upstream"},
	)
	UpstreamFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_failures_total",
			Help: "Total number of exhausted retries per upstream API.",
		},
		[]string{"upstream"},
	)

	// ScanCycleDuration 扫描主循环指标
	ScanCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_cycle_duration_seconds",
			Help:    "Time taken by one full scan cycle.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	ScanPairsChecked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scan_pairs_checked",
			Help: "Number of pairs evaluated in the last scan cycle.",
		},
	)
	PoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "candidate_pool_size",
			Help: "Current number of pairs in the candidate pool.",
		},
	)
	EligiblePairsLastScan = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eligible_pairs_last_scan",
			Help: "Number of pairs that passed all filters in the last scan cycle.",
		},
	)

	// FilterRejectionsTotal 过滤与提醒指标
	FilterRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_rejections_total",
			Help: "Total number of filter rejections by reason.",
		},
		[]string{"reason"},
	)
	AlertsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Total number of alerts posted.",
		},
	)
	AlertsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Total number of alerts suppressed by reason.",
		},
		[]string{"reason"},
	)

	// WalletChecksTotal 钱包分析指标
	WalletChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_checks_total",
			Help: "Total number of wallet freshness checks performed.",
		},
	)
	WalletCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallet_check_duration_seconds",
			Help:    "Time taken to complete one wallet freshness check.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// PerformanceChecksTotal 回测指标
	PerformanceChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "performance_checks_total",
			Help: "Total number of alert performance checkpoints recorded.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRateLimitedTotal,
		UpstreamFailuresTotal,
		ScanCycleDuration,
		ScanPairsChecked,
		PoolSize,
		EligiblePairsLastScan,
		FilterRejectionsTotal,
		AlertsSentTotal,
		AlertsSuppressedTotal,
		WalletChecksTotal,
		WalletCheckDuration,
		PerformanceChecksTotal,
	)
}
