package dao

import (
	"context"

	"trench-radar/internal/scanner/model"
)

// TokenDAO 代币主记录数据访问接口
type TokenDAO interface {
	// GetByAddress 读取代币主记录，不存在时返回 nil
	GetByAddress(ctx context.Context, tokenAddress string) (*model.Token, error)

	// Upsert 幂等写回代币主记录
	// first_seen_at、eligible_first_at、eligible_first_snapshot、called_price 只写一次
	Upsert(ctx context.Context, token *model.Token) error

	// UpdateEnrichment 回填异步富化结果
	UpdateEnrichment(ctx context.Context, tokenAddress string, updates map[string]interface{}) error

	// UpdatePerformance 回填业绩极值和倍数时间戳
	UpdatePerformance(ctx context.Context, tokenAddress string, updates map[string]interface{}) error

	// RecentEligible 取回看窗口内曾经合格的代币，按最久未复查的在前
	RecentEligible(ctx context.Context, since int64, limit int) ([]*model.Token, error)

	// MissingCalledPrice 取没有起始价但有首次合格快照的代币
	MissingCalledPrice(ctx context.Context, limit int) ([]*model.Token, error)

	// RecentAlerted 取最近发过提醒的代币，按提醒时间倒序
	RecentAlerted(ctx context.Context, limit int) ([]*model.Token, error)
}
