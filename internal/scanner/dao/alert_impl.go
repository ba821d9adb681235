package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trench-radar/internal/scanner/model"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// alertDAO 实现AlertDAO接口
type alertDAO struct {
	db         *gorm.DB
	localCache *cache.Cache
}

// NewAlertDAO 创建AlertDAO实例
func NewAlertDAO(db *gorm.DB) AlertDAO {
	return &alertDAO{
		db:         db,
		localCache: cache.New(30*time.Minute, time.Minute),
	}
}

func (a *alertDAO) Create(ctx context.Context, alert *model.TokenAlert) error {
	if err := a.db.WithContext(ctx).Create(alert).Error; err != nil {
		return err
	}
	a.localCache.Set(alertedCacheKey(alert.PairAddress), true, cache.DefaultExpiration)
	return nil
}

// HasAlerted 发过提醒这一事实不会回退，本地缓存只存正向结果
func (a *alertDAO) HasAlerted(ctx context.Context, pairAddress string) (bool, error) {
	if _, found := a.localCache.Get(alertedCacheKey(pairAddress)); found {
		return true, nil
	}

	var count int64
	err := a.db.WithContext(ctx).
		Model(&model.TokenAlert{}).
		Where("pair_address = ?", pairAddress).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		a.localCache.Set(alertedCacheKey(pairAddress), true, cache.DefaultExpiration)
	}
	return count > 0, nil
}

func (a *alertDAO) LatestByPair(ctx context.Context, pairAddress string) (*model.TokenAlert, error) {
	var alert model.TokenAlert
	err := a.db.WithContext(ctx).
		Where("pair_address = ?", pairAddress).
		Order("alerted_at DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (a *alertDAO) RecentAlerts(ctx context.Context, since int64, limit int) ([]*model.TokenAlert, error) {
	var alerts []*model.TokenAlert
	err := a.db.WithContext(ctx).
		Where("alerted_at >= ?", since).
		Order("alerted_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

func (a *alertDAO) UpdateMessageID(ctx context.Context, alertID int64, messageID int64) error {
	return a.db.WithContext(ctx).
		Model(&model.TokenAlert{}).
		Where("id = ?", alertID).
		Update("message_id", messageID).Error
}

func alertedCacheKey(pairAddress string) string {
	return fmt.Sprintf("alerted:%s", pairAddress)
}
