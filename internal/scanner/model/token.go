package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Token 被追踪的代币主记录，一个代币一行
// 状态机字段和业绩極值都在这一行上做幂等 upsert
type Token struct {
	TokenAddress string `gorm:"column:token_address;type:varchar(255);primaryKey" json:"token_address"`
	ChainID      string `gorm:"column:chain_id;type:varchar(32);not null" json:"chain_id"`
	PairAddress  string `gorm:"column:pair_address;type:varchar(255);index" json:"pair_address"`
	Symbol       string `gorm:"column:symbol;type:varchar(64)" json:"symbol"`
	Name         string `gorm:"column:name;type:varchar(255)" json:"name"`

	FirstSeenAt   int64  `gorm:"column:first_seen_at;not null" json:"first_seen_at"`
	LastSeenAt    int64  `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
	LastCheckedAt *int64 `gorm:"column:last_checked_at" json:"last_checked_at"`

	// 提醒状态机
	LastEligible     bool   `gorm:"column:last_eligible;not null;default:false" json:"last_eligible"`
	LastEligibleAt   *int64 `gorm:"column:last_eligible_at" json:"last_eligible_at"`
	LastIneligibleAt *int64 `gorm:"column:last_ineligible_at" json:"last_ineligible_at"`
	LastAlertedAt    *int64 `gorm:"column:last_alerted_at" json:"last_alerted_at"`
	AlertCount       int    `gorm:"column:alert_count;not null;default:0" json:"alert_count"`

	LastSnapshot datatypes.JSON `gorm:"column:last_snapshot;type:jsonb" json:"last_snapshot"`
	LastReasons  pq.StringArray `gorm:"column:last_reasons;type:text[]" json:"last_reasons"`

	// 首次合格时刻的快照，只写一次，之后不再覆盖
	EligibleFirstAt       *int64         `gorm:"column:eligible_first_at" json:"eligible_first_at"`
	EligibleFirstSnapshot datatypes.JSON `gorm:"column:eligible_first_snapshot;type:jsonb" json:"eligible_first_snapshot"`

	// 业绩追踪，极值只增不减
	CalledPrice  *float64 `gorm:"column:called_price" json:"called_price"`
	MaxPrice     *float64 `gorm:"column:max_price" json:"max_price"`
	MaxMarketCap *float64 `gorm:"column:max_market_cap" json:"max_market_cap"`
	Hit2xAt      *int64   `gorm:"column:hit_2x_at" json:"hit_2x_at"`
	Hit3xAt      *int64   `gorm:"column:hit_3x_at" json:"hit_3x_at"`
	Hit5xAt      *int64   `gorm:"column:hit_5x_at" json:"hit_5x_at"`

	// 异步富化结果
	WalletAnalysis   datatypes.JSON `gorm:"column:wallet_analysis;type:jsonb" json:"wallet_analysis"`
	WalletCheckedAt  *int64         `gorm:"column:wallet_checked_at" json:"wallet_checked_at"`
	IntentAnalysis   datatypes.JSON `gorm:"column:intent_analysis;type:jsonb" json:"intent_analysis"`
	IntentCheckedAt  *int64         `gorm:"column:intent_checked_at" json:"intent_checked_at"`
}

// TableName 指定 GORM 写入的表名为 tokens
func (Token) TableName() string {
	return "tokens"
}

// TokenAlert 一条已发出的提醒记录
type TokenAlert struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ChainID      string         `gorm:"column:chain_id;type:varchar(32);not null" json:"chain_id"`
	PairAddress  string         `gorm:"column:pair_address;type:varchar(255);not null;index" json:"pair_address"`
	TokenAddress string         `gorm:"column:token_address;type:varchar(255);not null;index" json:"token_address"`
	TokenSymbol  string         `gorm:"column:token_symbol;type:varchar(64)" json:"token_symbol"`
	TokenName    string         `gorm:"column:token_name;type:varchar(255)" json:"token_name"`
	AlertedAt    int64          `gorm:"column:alerted_at;not null;index" json:"alerted_at"`
	PriceUsd     float64        `gorm:"column:price_usd;not null;default:0" json:"price_usd"`
	MarketCap    *float64       `gorm:"column:market_cap" json:"market_cap"`
	LiquidityUsd *float64       `gorm:"column:liquidity_usd" json:"liquidity_usd"`
	Volume1h     *float64       `gorm:"column:volume_1h" json:"volume_1h"`
	FlowScore    int            `gorm:"column:flow_score;not null;default:0" json:"flow_score"`
	FlowLabel    string         `gorm:"column:flow_label;type:varchar(32)" json:"flow_label"`
	FlowReasons  pq.StringArray `gorm:"column:flow_reasons;type:text[]" json:"flow_reasons"`
	Snapshot     datatypes.JSON `gorm:"column:snapshot;type:jsonb" json:"snapshot"`
	MessageID    *int64         `gorm:"column:message_id" json:"message_id"`
	DryRun       bool           `gorm:"column:dry_run;not null;default:false" json:"dry_run"`
}

// TableName 指定 GORM 写入的表名为 token_alerts
func (TokenAlert) TableName() string {
	return "token_alerts"
}
