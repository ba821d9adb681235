package job

import (
	"context"

	"trench-radar/internal/scanner/dao"
	"trench-radar/pkg/dexscreener"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const backfillBatchSize = 500

// CalledPriceBackfill 一次性补齐历史记录里缺失的起始价
// 早期版本不落起始价，从首次合格快照里把当时的价格解析回来
type CalledPriceBackfill struct {
	daos      *dao.DAOManager
	logger    *zap.Logger
	batchSize int
}

// NewCalledPriceBackfill 创建起始价回填作业
func NewCalledPriceBackfill(daos *dao.DAOManager, logger *zap.Logger) *CalledPriceBackfill {
	return &CalledPriceBackfill{daos: daos, logger: logger, batchSize: backfillBatchSize}
}

// Run 执行回填，完成后在状态表落一个标记避免每次启动都重扫
func (j *CalledPriceBackfill) Run(ctx context.Context) error {
	if done, err := j.daos.StateDAO.GetCounter(ctx, "called_price_backfill_done"); err == nil && done > 0 {
		return nil
	}

	scanned, filled := 0, 0
	for {
		tokens, err := j.daos.TokenDAO.MissingCalledPrice(ctx, j.batchSize)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			break
		}
		scanned += len(tokens)

		batchFilled := 0
		for _, token := range tokens {
			price, ok := priceFromSnapshot(token.EligibleFirstSnapshot)
			if !ok {
				// 首次合格快照拿不到价格时退回最近一次快照
				price, ok = priceFromSnapshot(token.LastSnapshot)
			}
			if !ok || price <= 0 {
				j.logger.Warn("no usable snapshot price",
					zap.String("token", token.TokenAddress))
				continue
			}
			updates := map[string]interface{}{"called_price": price}
			if err := j.daos.TokenDAO.UpdatePerformance(ctx, token.TokenAddress, updates); err != nil {
				j.logger.Warn("called price backfill failed",
					zap.String("token", token.TokenAddress), zap.Error(err))
				continue
			}
			batchFilled++
		}
		filled += batchFilled
		// 剩下的行都解析不出价格时结束，避免反复捞同一批
		if batchFilled == 0 {
			break
		}
	}

	if _, err := j.daos.StateDAO.IncrCounter(ctx, "called_price_backfill_done"); err != nil {
		j.logger.Warn("backfill done flag not persisted", zap.Error(err))
	}
	j.logger.Info("called price backfill finished",
		zap.Int("candidates", scanned), zap.Int("filled", filled))
	return nil
}

func priceFromSnapshot(snapshot []byte) (float64, bool) {
	if len(snapshot) == 0 {
		return 0, false
	}
	var pair dexscreener.Pair
	if err := sonic.Unmarshal(snapshot, &pair); err != nil {
		return 0, false
	}
	return parsePrice(pair.PriceUsd)
}
