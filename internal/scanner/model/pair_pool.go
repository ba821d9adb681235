package model

import "gorm.io/datatypes"

// PairPoolEntry 候选池中的一个交易对
type PairPoolEntry struct {
	PairAddress   string         `gorm:"column:pair_address;type:varchar(255);primaryKey" json:"pair_address"`
	ChainID       string         `gorm:"column:chain_id;type:varchar(32);not null" json:"chain_id"`
	TokenAddress  string         `gorm:"column:token_address;type:varchar(255);not null;index" json:"token_address"`
	TokenSymbol   string         `gorm:"column:token_symbol;type:varchar(64)" json:"token_symbol"`
	TokenName     string         `gorm:"column:token_name;type:varchar(255)" json:"token_name"`
	Source        string         `gorm:"column:source;type:varchar(32);not null" json:"source"` // search | trending | profile | boost
	FirstSeenAt   int64          `gorm:"column:first_seen_at;not null" json:"first_seen_at"`
	LastSeenAt    int64          `gorm:"column:last_seen_at;not null;index" json:"last_seen_at"`
	LastHotScore  float64        `gorm:"column:last_hot_score;not null;default:0" json:"last_hot_score"`
	LastCheckedAt *int64         `gorm:"column:last_checked_at" json:"last_checked_at"`
	Snapshot      datatypes.JSON `gorm:"column:snapshot;type:jsonb" json:"snapshot"`
}

// TableName 指定 GORM 写入的表名为 pair_pool
func (PairPoolEntry) TableName() string {
	return "pair_pool"
}
