package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/monitor"
	"trench-radar/pkg/helius"

	"github.com/gagliardetto/solana-go"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"trench-radar/internal/scanner/model"
)

const maxTxPageSize = 100

// WalletAnalyzer 早期买家钱包体检服务
type WalletAnalyzer struct {
	cfg    *config.Config
	helius *helius.Client
	state  dao.StateDAO
	logger *zap.Logger
}

// NewWalletAnalyzer 创建钱包分析服务
func NewWalletAnalyzer(cfg *config.Config, heliusClient *helius.Client, state dao.StateDAO, logger *zap.Logger) *WalletAnalyzer {
	return &WalletAnalyzer{
		cfg:    cfg,
		helius: heliusClient,
		state:  state,
		logger: logger,
	}
}

type buyer struct {
	address string
	ts      *int64
}

// Analyze 找出交易对最早的一批买家并逐个体检
// 任何一个钱包结论不完整时整体结果标记 partial
func (w *WalletAnalyzer) Analyze(ctx context.Context, pairAddress, tokenAddress string) (*model.WalletAnalysisResult, error) {
	start := time.Now()
	defer func() {
		monitor.WalletCheckDuration.Observe(time.Since(start).Seconds())
	}()

	buyers, earliestTs, partial := w.fetchFirstBuyers(ctx, pairAddress, tokenAddress)
	if len(buyers) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	var balances []float64
	freshWallets := 0
	anyPartial := partial

	p := pool.New().WithMaxGoroutines(w.cfg.Wallet.Concurrency)
	for _, b := range buyers {
		addr := b.address
		p.Go(func() {
			report := w.analyzeWallet(ctx, addr)
			mu.Lock()
			defer mu.Unlock()
			if report.BalanceSol != nil {
				balances = append(balances, *report.BalanceSol)
			}
			if report.IsFresh {
				freshWallets++
			}
			if report.Partial {
				anyPartial = true
			}
		})
	}
	p.Wait()

	monitor.WalletChecksTotal.Inc()
	w.state.IncrCounter(ctx, "wallet_checks")

	uniqueBuyers := len(buyers)
	result := &model.WalletAnalysisResult{
		SampleSize:    w.sampleSize(),
		UniqueBuyers:  uniqueBuyers,
		FreshWallets:  freshWallets,
		EarliestBuyTs: earliestTs,
		Partial:       anyPartial,
		Source:        "helius",
	}
	if uniqueBuyers > 0 {
		ratio := float64(freshWallets) / float64(uniqueBuyers)
		result.FreshRatio = &ratio
	}
	if len(balances) > 0 {
		sort.Float64s(balances)
		sum := 0.0
		for _, b := range balances {
			sum += b
		}
		avg := sum / float64(len(balances))
		median := balances[len(balances)/2]
		if len(balances)%2 == 0 {
			median = (balances[len(balances)/2-1] + balances[len(balances)/2]) / 2
		}
		minVal := balances[0]
		maxVal := balances[len(balances)-1]
		result.AvgSol = &avg
		result.MedianSol = &median
		result.MinSol = &minVal
		result.MaxSol = &maxVal
	}
	return result, nil
}

// fetchFirstBuyers 翻页扫交易对的 swap 交易，按首次买入时间取最早的一批买家
func (w *WalletAnalyzer) fetchFirstBuyers(ctx context.Context, pairAddress, tokenAddress string) ([]buyer, *int64, bool) {
	buyerTimes := make(map[string]*int64)
	tokenLC := strings.ToLower(tokenAddress)
	before := ""
	partial := true

	for page := 0; page < w.cfg.Wallet.MaxSignaturePages; page++ {
		txs, err := w.helius.GetParsedTransactions(ctx, pairAddress, before, maxTxPageSize, 5*time.Second)
		if err != nil || len(txs) == 0 {
			partial = false
			break
		}
		for i := range txs {
			addr, ts := w.extractBuyer(&txs[i], tokenLC)
			if addr == "" {
				continue
			}
			prev, seen := buyerTimes[addr]
			if !seen || prev == nil || (ts != nil && *ts < *prev) {
				buyerTimes[addr] = ts
			}
		}
		before = txs[len(txs)-1].Signature
		if before == "" {
			partial = false
			break
		}
	}

	buyers := make([]buyer, 0, len(buyerTimes))
	for addr, ts := range buyerTimes {
		buyers = append(buyers, buyer{address: addr, ts: ts})
	}
	sort.SliceStable(buyers, func(i, j int) bool {
		if buyers[i].ts == nil {
			return false
		}
		if buyers[j].ts == nil {
			return true
		}
		return *buyers[i].ts < *buyers[j].ts
	})
	if len(buyers) > w.sampleSize() {
		buyers = buyers[:w.sampleSize()]
	}

	var earliest *int64
	for _, b := range buyers {
		if b.ts == nil {
			continue
		}
		if earliest == nil || *b.ts < *earliest {
			earliest = b.ts
		}
	}
	return buyers, earliest, partial
}

// extractBuyer 只认白名单来源的 swap，目标代币出现在输出侧才算买入
func (w *WalletAnalyzer) extractBuyer(tx *helius.ParsedTransaction, tokenLC string) (string, *int64) {
	source := strings.ToLower(tx.Source)
	allowed := false
	for _, key := range w.cfg.Wallet.AllowedSources {
		if strings.Contains(source, key) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", nil
	}
	if tx.Events == nil || tx.Events.Swap == nil {
		return "", nil
	}
	swap := tx.Events.Swap
	if !hasMint(swap.TokenOutputs, tokenLC) {
		return "", nil
	}
	addr := swap.User
	if addr == "" {
		addr = tx.FeePayer
	}
	if addr == "" {
		return "", nil
	}
	var ts *int64
	if tx.Timestamp > 0 {
		t := tx.Timestamp
		ts = &t
	}
	return addr, ts
}

func hasMint(items []helius.SwapTokenAmount, tokenLC string) bool {
	for _, item := range items {
		if strings.ToLower(item.Mint) == tokenLC {
			return true
		}
	}
	return false
}

// analyzeWallet 查余额并判定是否为新钱包，结果带缓存
func (w *WalletAnalyzer) analyzeWallet(ctx context.Context, address string) *model.WalletReport {
	if cached, err := w.state.GetWalletReport(ctx, address); err == nil && cached != nil {
		return cached
	}

	report := &model.WalletReport{
		WalletAddress: address,
		CheckedAt:     time.Now().Unix(),
	}
	if balance, err := w.helius.GetBalanceSol(ctx, address); err == nil {
		report.BalanceSol = &balance
	}
	report.IsFresh, report.Partial = w.isFreshWallet(ctx, address)

	ttl := time.Duration(w.cfg.Wallet.CacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := w.state.SetWalletReport(ctx, report, ttl); err != nil {
		w.logger.Warn("failed to cache wallet report", zap.String("wallet", address), zap.Error(err))
	}
	return report
}

// isFreshWallet 新钱包 = 最老交易不早于阈值天数且交易总数不超上限
// 翻完允许的页数仍无结论时返回 (false, partial=true)
func (w *WalletAnalyzer) isFreshWallet(ctx context.Context, address string) (bool, bool) {
	cutoff := time.Now().Unix() - int64(w.cfg.Wallet.MaxAgeDays)*86400
	var before solana.Signature
	total := 0

	for page := 0; page < w.cfg.Wallet.MaxSignaturePages; page++ {
		sigs, err := w.helius.GetSignaturesPage(ctx, address, maxTxPageSize, before)
		if err != nil {
			w.logger.Warn("signature page fetch failed", zap.String("wallet", address), zap.Error(err))
			return false, true
		}
		if len(sigs) == 0 {
			return true, false
		}
		total += len(sigs)
		if total > w.cfg.Wallet.MaxTxCount {
			return false, false
		}
		for _, sig := range sigs {
			if sig.BlockTime != nil && int64(*sig.BlockTime) < cutoff {
				return false, false
			}
		}
		if len(sigs) < maxTxPageSize {
			return true, false
		}
		before = sigs[len(sigs)-1].Signature
	}
	return false, true
}

func (w *WalletAnalyzer) sampleSize() int {
	if w.cfg.Wallet.TxSampleLimit > 0 {
		return w.cfg.Wallet.TxSampleLimit
	}
	return 10
}
