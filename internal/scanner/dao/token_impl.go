package dao

import (
	"context"
	"errors"
	"time"

	"trench-radar/internal/scanner/model"
	"trench-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenDAO 实现TokenDAO接口
type tokenDAO struct {
	db         *gorm.DB
	rds        *redis.Client
	localCache *cache.Cache
}

// NewTokenDAO 创建TokenDAO实例
func NewTokenDAO(db *gorm.DB, rds *redis.Client) TokenDAO {
	return &tokenDAO{
		db:         db,
		rds:        rds,
		localCache: cache.New(time.Minute, time.Minute),
	}
}

func (t *tokenDAO) GetByAddress(ctx context.Context, tokenAddress string) (*model.Token, error) {
	cacheKey := utils.TokenRecordKey(tokenAddress)

	// 先查本地缓存
	if cached, found := t.localCache.Get(cacheKey); found {
		if token, ok := cached.(*model.Token); ok {
			return token, nil
		}
	}

	// 再查Redis缓存
	cached, err := t.rds.Get(ctx, cacheKey).Result()
	if err == nil {
		if cached == "null" {
			return nil, nil
		}
		var token model.Token
		if sonic.Unmarshal([]byte(cached), &token) == nil {
			t.localCache.Set(cacheKey, &token, cache.DefaultExpiration)
			return &token, nil
		}
	}

	// 查数据库
	var token model.Token
	err = t.db.WithContext(ctx).
		Where("token_address = ?", tokenAddress).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 缓存空结果，避免缓存穿透
			t.localCache.Set(cacheKey, (*model.Token)(nil), 30*time.Second)
			t.rds.Set(ctx, cacheKey, "null", 30*time.Second)
			return nil, nil
		}
		return nil, err
	}

	t.updateCache(ctx, cacheKey, &token)
	return &token, nil
}

func (t *tokenDAO) updateCache(ctx context.Context, cacheKey string, token *model.Token) {
	t.localCache.Set(cacheKey, token, cache.DefaultExpiration)
	if data, err := sonic.Marshal(token); err == nil {
		t.rds.Set(ctx, cacheKey, string(data), 5*time.Minute)
	}
}

func (t *tokenDAO) clearCache(ctx context.Context, tokenAddress string) {
	cacheKey := utils.TokenRecordKey(tokenAddress)
	t.localCache.Delete(cacheKey)
	t.rds.Del(ctx, cacheKey)
}

// Upsert 冲突时刷新扫描侧字段，只写一次的字段用 COALESCE 保住旧值
func (t *tokenDAO) Upsert(ctx context.Context, token *model.Token) error {
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"chain_id":           gorm.Expr("EXCLUDED.chain_id"),
			"pair_address":       gorm.Expr("EXCLUDED.pair_address"),
			"symbol":             gorm.Expr("EXCLUDED.symbol"),
			"name":               gorm.Expr("EXCLUDED.name"),
			"last_seen_at":       gorm.Expr("EXCLUDED.last_seen_at"),
			"last_checked_at":    gorm.Expr("EXCLUDED.last_checked_at"),
			"last_eligible":      gorm.Expr("EXCLUDED.last_eligible"),
			"last_eligible_at":   gorm.Expr("EXCLUDED.last_eligible_at"),
			"last_ineligible_at": gorm.Expr("EXCLUDED.last_ineligible_at"),
			"last_alerted_at":    gorm.Expr("EXCLUDED.last_alerted_at"),
			"alert_count":        gorm.Expr("EXCLUDED.alert_count"),
			"last_snapshot":      gorm.Expr("EXCLUDED.last_snapshot"),
			"last_reasons":       gorm.Expr("EXCLUDED.last_reasons"),

			"first_seen_at":           gorm.Expr("tokens.first_seen_at"),
			"eligible_first_at":       gorm.Expr("COALESCE(tokens.eligible_first_at, EXCLUDED.eligible_first_at)"),
			"eligible_first_snapshot": gorm.Expr("COALESCE(tokens.eligible_first_snapshot, EXCLUDED.eligible_first_snapshot)"),
			"called_price":            gorm.Expr("COALESCE(tokens.called_price, EXCLUDED.called_price)"),
		}),
	}).Create(token).Error
	if err != nil {
		return err
	}
	t.clearCache(ctx, token.TokenAddress)
	return nil
}

func (t *tokenDAO) UpdateEnrichment(ctx context.Context, tokenAddress string, updates map[string]interface{}) error {
	err := t.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token_address = ?", tokenAddress).
		Updates(updates).Error
	if err != nil {
		return err
	}
	t.clearCache(ctx, tokenAddress)
	return nil
}

func (t *tokenDAO) UpdatePerformance(ctx context.Context, tokenAddress string, updates map[string]interface{}) error {
	err := t.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token_address = ?", tokenAddress).
		Updates(updates).Error
	if err != nil {
		return err
	}
	t.clearCache(ctx, tokenAddress)
	return nil
}

func (t *tokenDAO) RecentEligible(ctx context.Context, since int64, limit int) ([]*model.Token, error) {
	var tokens []*model.Token
	err := t.db.WithContext(ctx).
		Where("eligible_first_at IS NOT NULL AND eligible_first_at >= ?", since).
		Order("COALESCE(last_checked_at, 0) ASC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, err
}

func (t *tokenDAO) MissingCalledPrice(ctx context.Context, limit int) ([]*model.Token, error) {
	var tokens []*model.Token
	err := t.db.WithContext(ctx).
		Where("called_price IS NULL AND eligible_first_snapshot IS NOT NULL").
		Order("eligible_first_at ASC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, err
}

func (t *tokenDAO) RecentAlerted(ctx context.Context, limit int) ([]*model.Token, error) {
	var tokens []*model.Token
	err := t.db.WithContext(ctx).
		Where("last_alerted_at IS NOT NULL").
		Order("last_alerted_at DESC").
		Limit(limit).
		Find(&tokens).Error
	return tokens, err
}
