package job

import (
	"context"
	"sync/atomic"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/monitor"
	"trench-radar/pkg/dexscreener"

	"go.uber.org/zap"
)

// Performance 业绩追踪作业，定期重拉曾合格代币的行情
// 只抬升历史极值，并在价格首次触及起始价倍数时盖时间戳
type Performance struct {
	cfg    *config.Config
	daos   *dao.DAOManager
	dex    pairFetcher
	logger *zap.Logger

	running atomic.Bool
}

// pairFetcher 业绩作业只需要按地址重拉单个交易对
type pairFetcher interface {
	PairDetail(ctx context.Context, chainID, pairAddress string, ttl time.Duration) (*dexscreener.Pair, error)
}

// NewPerformance 创建业绩追踪作业
func NewPerformance(cfg *config.Config, daos *dao.DAOManager, dex pairFetcher, logger *zap.Logger) *Performance {
	return &Performance{cfg: cfg, daos: daos, dex: dex, logger: logger}
}

// Run 执行一轮业绩追踪
func (j *Performance) Run(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("previous performance check still running, skip this cycle")
		return nil
	}
	defer j.running.Store(false)

	// 热更新后的配置在每轮开始时生效
	if cur := config.Current(); cur != nil {
		j.cfg = cur
	}

	since := time.Now().Unix() - int64(j.cfg.Performance.LookbackHours)*3600
	tokens, err := j.daos.TokenDAO.RecentEligible(ctx, since, j.cfg.Performance.BatchSize)
	if err != nil {
		return err
	}

	updated := 0
	for _, token := range tokens {
		if token.PairAddress == "" {
			continue
		}
		now := time.Now().Unix()
		// 每次复查都刷新 last_checked_at，批次按最久未查轮转
		updates := map[string]interface{}{"last_checked_at": now}

		pair, fetchErr := j.dex.PairDetail(ctx, token.ChainID, token.PairAddress, 0)
		if fetchErr == nil && pair != nil {
			if price, ok := parsePrice(pair.PriceUsd); ok {
				if token.MaxPrice == nil || price > *token.MaxPrice {
					updates["max_price"] = price
				}
				if pair.MarketCap != nil && (token.MaxMarketCap == nil || *pair.MarketCap > *token.MaxMarketCap) {
					updates["max_market_cap"] = *pair.MarketCap
				}
				if token.CalledPrice != nil && *token.CalledPrice > 0 {
					multiple := price / *token.CalledPrice
					if token.Hit2xAt == nil && multiple >= 2 {
						updates["hit_2x_at"] = now
					}
					if token.Hit3xAt == nil && multiple >= 3 {
						updates["hit_3x_at"] = now
					}
					if token.Hit5xAt == nil && multiple >= 5 {
						updates["hit_5x_at"] = now
					}
				}
			}
		}
		if err := j.daos.TokenDAO.UpdatePerformance(ctx, token.TokenAddress, updates); err != nil {
			j.logger.Warn("performance update failed",
				zap.String("token", token.TokenAddress), zap.Error(err))
			continue
		}
		if len(updates) > 1 {
			updated++
		}
	}

	monitor.PerformanceChecksTotal.Add(float64(len(tokens)))
	j.logger.Info("performance check finished",
		zap.Int("tracked", len(tokens)), zap.Int("updated", updated))
	return nil
}
