package dao

import (
	"context"

	"trench-radar/internal/scanner/model"
)

// PairPoolDAO 候选池数据访问接口
type PairPoolDAO interface {
	// UpsertBatch 批量写入候选，已存在时刷新最近一次见到的快照
	UpsertBatch(ctx context.Context, entries []*model.PairPoolEntry) error

	// Purge 删除 last_seen_at 早于 cutoff 的候选，返回删除行数
	Purge(ctx context.Context, cutoff int64) (int64, error)

	// TrimToMax 超过容量上限时删除最久未见的候选，返回删除行数
	TrimToMax(ctx context.Context, max int) (int64, error)

	// HotSet 取热度最高且最久未复查的前 N 个候选
	HotSet(ctx context.Context, topN int) ([]*model.PairPoolEntry, error)

	// MarkChecked 记录一批候选的复查时间
	MarkChecked(ctx context.Context, pairAddresses []string, checkedAt int64) error

	// Count 当前池内候选数量
	Count(ctx context.Context) (int64, error)
}
