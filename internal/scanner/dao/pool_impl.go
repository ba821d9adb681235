package dao

import (
	"context"

	"trench-radar/internal/scanner/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pairPoolDAO 实现PairPoolDAO接口
type pairPoolDAO struct {
	db *gorm.DB
}

// NewPairPoolDAO 创建PairPoolDAO实例
func NewPairPoolDAO(db *gorm.DB) PairPoolDAO {
	return &pairPoolDAO{db: db}
}

// UpsertBatch 批量写入候选，冲突时保留 first_seen_at，刷新其余字段
func (p *pairPoolDAO) UpsertBatch(ctx context.Context, entries []*model.PairPoolEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pair_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chain_id",
			"token_address",
			"token_symbol",
			"token_name",
			"source",
			"last_seen_at",
			"last_hot_score",
			"snapshot",
		}),
	}).Create(entries).Error
}

func (p *pairPoolDAO) Purge(ctx context.Context, cutoff int64) (int64, error) {
	res := p.db.WithContext(ctx).
		Where("last_seen_at < ?", cutoff).
		Delete(&model.PairPoolEntry{})
	return res.RowsAffected, res.Error
}

// TrimToMax 保留 last_seen_at 最新的 max 条，其余删除
func (p *pairPoolDAO) TrimToMax(ctx context.Context, max int) (int64, error) {
	res := p.db.WithContext(ctx).Exec(`
		DELETE FROM pair_pool
		WHERE pair_address NOT IN (
			SELECT pair_address FROM pair_pool
			ORDER BY last_seen_at DESC
			LIMIT ?
		)`, max)
	return res.RowsAffected, res.Error
}

// HotSet 热度优先，同热度下优先取最久未复查的
func (p *pairPoolDAO) HotSet(ctx context.Context, topN int) ([]*model.PairPoolEntry, error) {
	var entries []*model.PairPoolEntry
	err := p.db.WithContext(ctx).
		Order("last_hot_score DESC").
		Order("last_checked_at ASC NULLS FIRST").
		Limit(topN).
		Find(&entries).Error
	return entries, err
}

func (p *pairPoolDAO) MarkChecked(ctx context.Context, pairAddresses []string, checkedAt int64) error {
	if len(pairAddresses) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).
		Model(&model.PairPoolEntry{}).
		Where("pair_address IN ?", pairAddresses).
		Update("last_checked_at", checkedAt).Error
}

func (p *pairPoolDAO) Count(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&model.PairPoolEntry{}).Count(&count).Error
	return count, err
}
