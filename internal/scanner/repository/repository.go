package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/monitor"
	"trench-radar/pkg/database"
	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/helius"
	"trench-radar/pkg/httpclient"
	"trench-radar/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg          config.Config
	logger       *zap.Logger
	db           *gorm.DB
	rdb          *redis.Client
	mq           *kafka.Writer
	dexClient    *dexscreener.Client
	heliusClient *helius.Client
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)
	if err != nil {
		panic(err)
	}

	r.rdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DB,
		PoolSize: 20,
	})

	if err := r.rdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
	}

	if strings.TrimSpace(r.cfg.Kafka.Brokers) != "" {
		brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
		r.mq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			BatchBytes:   1024 * 1024, // 1MB
			Async:        true,
			RequiredAcks: kafka.RequireNone,
			Compression:  kafka.Snappy,
			MaxAttempts:  5,
			WriteTimeout: 500 * time.Millisecond,
		}
	} else {
		r.logger.Info("kafka brokers empty, skip mq initialization")
	}

	dexHTTP := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:         time.Duration(r.cfg.Dexscreener.Timeout) * time.Second,
		MaxRPS:          r.cfg.Dexscreener.RateLimit,
		MaxConcurrency:  r.cfg.Dexscreener.Concurrency,
		RetryAttempts:   r.cfg.Dexscreener.RetryAttempts,
		CacheTTL:        time.Duration(r.cfg.Dexscreener.CacheTTLSec) * time.Second,
		CacheMaxEntries: r.cfg.Dexscreener.CacheMaxSize,
		UserAgent:       "trench-radar/1.0",
	}, r.logger, newUpstreamMetrics("dexscreener", r.rdb))
	r.dexClient = dexscreener.NewClient(dexHTTP, r.cfg.Dexscreener.BaseURL, r.logger)

	heliusHTTP := httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
		Timeout:        time.Duration(r.cfg.Helius.Timeout) * time.Second,
		MaxRPS:         r.cfg.Helius.RateLimit,
		MaxConcurrency: r.cfg.Helius.Concurrency,
		RetryAttempts:  r.cfg.Helius.RetryAttempts,
		CacheTTL:       time.Duration(r.cfg.Helius.CacheTTLSec) * time.Second,
		UserAgent:      "trench-radar/1.0",
	}, r.logger, newUpstreamMetrics("helius", r.rdb))
	r.heliusClient = helius.NewClient(r.cfg.Helius.RpcURL, r.cfg.Helius.RestBaseURL, r.cfg.Helius.APIKey, heliusHTTP, r.logger)
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetDexClient() *dexscreener.Client {
	return r.dexClient
}

func (r *repositoryImpl) GetHeliusClient() *helius.Client {
	return r.heliusClient
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		sqlDB, _ := r.db.DB()
		sqlDB.Close()
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	return nil
}

// upstreamMetrics 把请求计数同时打到 Prometheus 和 Redis 状态表
type upstreamMetrics struct {
	upstream string
	rds      *redis.Client
}

func newUpstreamMetrics(upstream string, rds *redis.Client) *upstreamMetrics {
	return &upstreamMetrics{upstream: upstream, rds: rds}
}

func (m *upstreamMetrics) IncRequests() {
	monitor.UpstreamRequestsTotal.WithLabelValues(m.upstream).Inc()
	m.rds.Incr(context.Background(), utils.MetricsKey("api_requests_"+m.upstream))
}

func (m *upstreamMetrics) IncRateLimited() {
	monitor.UpstreamRateLimitedTotal.WithLabelValues(m.upstream).Inc()
	m.rds.Incr(context.Background(), utils.MetricsKey("api_rate_limited_"+m.upstream))
}

func (m *upstreamMetrics) IncFailures() {
	monitor.UpstreamFailuresTotal.WithLabelValues(m.upstream).Inc()
	m.rds.Incr(context.Background(), utils.MetricsKey("api_failures_"+m.upstream))
}

func (m *upstreamMetrics) MarkSuccess() {
	m.rds.Set(context.Background(), utils.MetricsKey("last_api_success"), time.Now().Unix(), 0)
}
