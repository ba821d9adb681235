package dao

import (
	"context"

	"trench-radar/internal/scanner/model"
)

// AlertDAO 提醒记录数据访问接口
type AlertDAO interface {
	// Create 写入一条新的提醒记录
	Create(ctx context.Context, alert *model.TokenAlert) error

	// HasAlerted 该交易对历史上是否发过提醒
	HasAlerted(ctx context.Context, pairAddress string) (bool, error)

	// LatestByPair 取该交易对最近一条提醒
	LatestByPair(ctx context.Context, pairAddress string) (*model.TokenAlert, error)

	// RecentAlerts 取 since 之后的提醒，按时间倒序
	RecentAlerts(ctx context.Context, since int64, limit int) ([]*model.TokenAlert, error)

	// UpdateMessageID 回填推送渠道的消息ID
	UpdateMessageID(ctx context.Context, alertID int64, messageID int64) error
}
