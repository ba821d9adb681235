package notifier

import (
	"context"

	"trench-radar/internal/scanner/flow"
	"trench-radar/internal/scanner/model"
)

// AlertPayload 结构化提醒内容，渲染成什么样由各通道自己决定
type AlertPayload struct {
	ChainID        string
	PairAddress    string
	TokenAddress   string
	Symbol         string
	Name           string
	PairURL        string
	PriceUsd       float64
	MarketCapLabel string
	MarketCap      *float64
	LiquidityUsd   *float64
	Volume1h       *float64
	Change1h       *float64
	Change6h       *float64
	Change24h      *float64
	Flow           flow.Snapshot
	AlertedAt      int64

	// 异步富化结果，首次推送时为 nil，编辑时回填
	Wallet *model.WalletAnalysisResult
	Intent *model.IntentAnalysisResult
}

// MessageRef 指向某个通道里已发出的一条消息
type MessageRef struct {
	Destination string
	MessageID   int64
}

// Notifier 提醒外发通道
type Notifier interface {
	// PostAlert 向各目的地推送提醒，单个目的地失败不阻塞其余目的地
	PostAlert(ctx context.Context, destinations []string, payload *AlertPayload) []MessageRef

	// EditAlert 用富化后的内容覆盖已发出的提醒
	EditAlert(ctx context.Context, ref MessageRef, payload *AlertPayload) error

	// PostFollowup 编辑失败时退而求其次，跟发一条补充消息
	PostFollowup(ctx context.Context, destination string, payload *AlertPayload) error
}
