package repository

import (
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/helius"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

type Repository interface {
	//DB
	GetRDB() RedisClient
	GetDB() DBClient
	GetMQ() MQClient
	GetDexClient() *dexscreener.Client
	GetHeliusClient() *helius.Client
	Close() error
}
