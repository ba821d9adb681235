package dao

import (
	"context"
	"time"

	"trench-radar/internal/scanner/model"
)

// StateDAO 运行状态访问接口，计数器和运行开关都落在 Redis
type StateDAO interface {
	// IncrCounter 累计计数器原子加一
	IncrCounter(ctx context.Context, name string) (int64, error)

	// IncrCounterBy 累计计数器原子加 delta
	IncrCounterBy(ctx context.Context, name string, delta int64) (int64, error)

	// GetCounter 读取累计计数器
	GetCounter(ctx context.Context, name string) (int64, error)

	// IncrRate 当前速率窗口加一
	IncrRate(ctx context.Context, name string, now int64, windowSec int) error

	// RateCount 当前速率窗口内的计数
	RateCount(ctx context.Context, name string, now int64, windowSec int) (int64, error)

	// IncrDaily 当日计数器加一
	IncrDaily(ctx context.Context, name, day string) (int64, error)

	// GetDaily 读取当日计数器
	GetDaily(ctx context.Context, name, day string) (int64, error)

	// PushAlertLagSample 记录一次提醒滞后样本（毫秒），只保留最近 keep 条
	PushAlertLagSample(ctx context.Context, lagMs int64, keep int64) error

	// AlertLagSamples 读取最近的提醒滞后样本
	AlertLagSamples(ctx context.Context, limit int64) ([]int64, error)

	// SetWalletReport 缓存钱包体检结果
	SetWalletReport(ctx context.Context, report *model.WalletReport, ttl time.Duration) error

	// GetWalletReport 读取缓存的钱包体检结果，不存在时返回 nil
	GetWalletReport(ctx context.Context, walletAddress string) (*model.WalletReport, error)

	// SetLastAPISuccess 记录最近一次上游成功时间
	SetLastAPISuccess(ctx context.Context, ts int64) error

	// GetLastAPISuccess 读取最近一次上游成功时间，无记录时返回 0
	GetLastAPISuccess(ctx context.Context) (int64, error)

	// SetPaused 全局暂停或恢复扫描
	SetPaused(ctx context.Context, paused bool) error

	// IsPaused 扫描是否处于全局暂停
	IsPaused(ctx context.Context) (bool, error)

	// SetMutedUntil 静音到指定时间，提醒照常判定但不外发
	SetMutedUntil(ctx context.Context, until int64) error

	// MutedUntil 读取静音截止时间，无记录时返回 0
	MutedUntil(ctx context.Context) (int64, error)
}
