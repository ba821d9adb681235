package model

// WalletAnalysisResult 早期买家钱包画像汇总
type WalletAnalysisResult struct {
	SampleSize    int      `json:"sample_size"`
	UniqueBuyers  int      `json:"unique_buyers"`
	FreshWallets  int      `json:"fresh_wallets"`
	FreshRatio    *float64 `json:"fresh_ratio"`
	AvgSol        *float64 `json:"avg_sol"`
	MedianSol     *float64 `json:"median_sol"`
	MinSol        *float64 `json:"min_sol"`
	MaxSol        *float64 `json:"max_sol"`
	EarliestBuyTs *int64   `json:"earliest_buy_ts"`
	Partial       bool     `json:"partial"`
	Source        string   `json:"source"`
}

// IntentAnalysisResult 交易对近期成交的意图评分，0到3分
type IntentAnalysisResult struct {
	SampleSize  int      `json:"sample_size"`
	BuyCount    int      `json:"buy_count"`
	SellCount   int      `json:"sell_count"`
	MedianGap   *float64 `json:"median_gap_sec"`
	BuySizeCV   *float64 `json:"buy_size_cv"`
	SellRatio   *float64 `json:"sell_ratio"`
	Score       int      `json:"score"`
	Partial     bool     `json:"partial"`
	CheckedAt   int64    `json:"checked_at"`
}

// WalletReport 单个钱包的体检结果，供缓存复用
type WalletReport struct {
	WalletAddress string   `json:"wallet_address"`
	BalanceSol    *float64 `json:"balance_sol"`
	IsFresh       bool     `json:"is_fresh"`
	Partial       bool     `json:"partial"` // 分页到达上限，结论不完整
	CheckedAt     int64    `json:"checked_at"`
}
