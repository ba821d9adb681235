package dao

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	PoolDAO  PairPoolDAO
	TokenDAO TokenDAO
	AlertDAO AlertDAO
	StateDAO StateDAO
}

// NewDAOManager 创建DAO管理器实例
func NewDAOManager(db *gorm.DB, rds *redis.Client) *DAOManager {
	return &DAOManager{
		PoolDAO:  NewPairPoolDAO(db),
		TokenDAO: NewTokenDAO(db, rds),
		AlertDAO: NewAlertDAO(db),
		StateDAO: NewStateDAO(rds),
	}
}
