package config

import (
	"fmt"
	"sync/atomic"

	"trench-radar/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Dexscreener DexscreenerConfig `mapstructure:"dexscreener"`
	Helius      HeliusConfig      `mapstructure:"helius"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Scanner     ScannerConfig     `mapstructure:"scanner"`
	Flow        FlowConfig        `mapstructure:"flow"`
	Wallet      WalletConfig      `mapstructure:"wallet"`
	Performance PerformanceConfig `mapstructure:"performance"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	TopicAlerts string `mapstructure:"topic_alerts"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// DexscreenerConfig DexScreener 接口配置
type DexscreenerConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	RateLimit     int    `mapstructure:"rate_limit"`
	Concurrency   int    `mapstructure:"concurrency"`
	Timeout       int    `mapstructure:"timeout"`
	RetryAttempts int    `mapstructure:"retry_attempts"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec"`
	CacheMaxSize  int    `mapstructure:"cache_max_size"`
}

// HeliusConfig Helius 接口配置
type HeliusConfig struct {
	RpcURL        string `mapstructure:"rpc_url"`
	RestBaseURL   string `mapstructure:"rest_base_url"`
	APIKey        string `mapstructure:"api_key"`
	RateLimit     int    `mapstructure:"rate_limit"`
	Concurrency   int    `mapstructure:"concurrency"`
	Timeout       int    `mapstructure:"timeout"`
	RetryAttempts int    `mapstructure:"retry_attempts"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec"`
}

// TelegramConfig Telegram 推送配置
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Tagline  string `mapstructure:"tagline"`
	Enable   bool   `mapstructure:"enable"`
}

// FilterThresholds 过滤阈值
type FilterThresholds struct {
	RequireProfile bool    `mapstructure:"require_profile"`
	UseFdvProxy    bool    `mapstructure:"use_fdv_proxy"`
	MaxMarketCap   float64 `mapstructure:"max_market_cap"`
	MinChange24h   float64 `mapstructure:"min_change_24h"`
	MinChange6h    float64 `mapstructure:"min_change_6h"`
	MinChange1h    float64 `mapstructure:"min_change_1h"`
	MinVolume1h    float64 `mapstructure:"min_volume_1h"`
}

// ScannerConfig 扫描主流程配置
type ScannerConfig struct {
	ChainID            string           `mapstructure:"chain_id"`
	ScanIntervalSec    int              `mapstructure:"scan_interval_sec"`
	DiscoveryMode      string           `mapstructure:"discovery_mode"` // market_sampler | fallback_search | hybrid
	MarketBaseTokens   []string         `mapstructure:"market_base_tokens"`
	Queries            []string         `mapstructure:"queries"`
	SearchRefreshSec   int              `mapstructure:"search_refresh_sec"`
	TrendingRefreshSec int              `mapstructure:"trending_refresh_sec"`
	TrendingMaxTokens  int              `mapstructure:"trending_max_tokens"`
	MaxPairsPerScan    int              `mapstructure:"max_pairs_per_scan"`
	MaxAlertsPerScan   int              `mapstructure:"max_alerts_per_scan"`
	DryRun             bool             `mapstructure:"dry_run"`
	DedupWindowMin     int              `mapstructure:"dedup_window_min"`
	RearmCooldownMin   int              `mapstructure:"rearm_cooldown_min"`
	PoolMaxSize        int              `mapstructure:"pool_max_size"`
	PoolRetentionHours int              `mapstructure:"pool_retention_hours"`
	HotTopN            int              `mapstructure:"hot_top_n"`
	Filters            FilterThresholds `mapstructure:"filters"`
}

// FlowConfig 资金流评分配置
type FlowConfig struct {
	MinBuys5m   int     `mapstructure:"min_buys_5m"`
	MinVolume5m float64 `mapstructure:"min_volume_5m"`
	MinBuys1h   int     `mapstructure:"min_buys_1h"`
	MinVolume1h float64 `mapstructure:"min_volume_1h"`
	MinHolders  int     `mapstructure:"min_holders"`
}

// WalletConfig 钱包分析配置
type WalletConfig struct {
	MaxAgeDays        int      `mapstructure:"max_age_days"`
	MaxTxCount        int      `mapstructure:"max_tx_count"`
	MaxSignaturePages int      `mapstructure:"max_signature_pages"`
	Concurrency       int      `mapstructure:"concurrency"`
	TxSampleLimit     int      `mapstructure:"tx_sample_limit"`
	AllowedSources    []string `mapstructure:"allowed_sources"`
	CacheTTLSec       int      `mapstructure:"cache_ttl_sec"`
}

// PerformanceConfig 业绩追踪配置
type PerformanceConfig struct {
	IntervalMin   int `mapstructure:"interval_min"`
	LookbackHours int `mapstructure:"lookback_hours"`
	BatchSize     int `mapstructure:"batch_size"`
}

// current 最近一次加载的配置，热更新时整体换指针
var current atomic.Pointer[Config]

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.scanner")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	applyDefaults(&config)
	current.Store(&config)
	return config
}

// Current 返回最近一次加载的配置，未初始化时为 nil
func Current() *Config {
	return current.Load()
}

// applyDefaults 关键参数兜底，保证配置缺项时扫描流程仍能运行
func applyDefaults(cfg *Config) {
	if cfg.Scanner.ChainID == "" {
		cfg.Scanner.ChainID = "solana"
	}
	if cfg.Scanner.ScanIntervalSec <= 0 {
		cfg.Scanner.ScanIntervalSec = 20
	}
	if cfg.Scanner.DiscoveryMode == "" {
		cfg.Scanner.DiscoveryMode = "hybrid"
	}
	if cfg.Scanner.DedupWindowMin <= 0 {
		cfg.Scanner.DedupWindowMin = 1440
	}
	if cfg.Scanner.RearmCooldownMin <= 0 {
		cfg.Scanner.RearmCooldownMin = 30
	}
	if cfg.Scanner.PoolMaxSize <= 0 {
		cfg.Scanner.PoolMaxSize = 1000
	}
	if cfg.Scanner.PoolRetentionHours <= 0 {
		cfg.Scanner.PoolRetentionHours = 48
	}
	if cfg.Scanner.HotTopN <= 0 {
		cfg.Scanner.HotTopN = 150
	}
	if cfg.Wallet.MaxAgeDays <= 0 {
		cfg.Wallet.MaxAgeDays = 7
	}
	if cfg.Wallet.MaxTxCount <= 0 {
		cfg.Wallet.MaxTxCount = 200
	}
	if cfg.Wallet.MaxSignaturePages <= 0 {
		cfg.Wallet.MaxSignaturePages = 3
	}
	if cfg.Wallet.Concurrency <= 0 {
		cfg.Wallet.Concurrency = 4
	}
	if len(cfg.Wallet.AllowedSources) == 0 {
		cfg.Wallet.AllowedSources = []string{"pump", "raydium", "orca"}
	}
	if cfg.Performance.IntervalMin <= 0 {
		cfg.Performance.IntervalMin = 5
	}
	if cfg.Performance.LookbackHours <= 0 {
		cfg.Performance.LookbackHours = 48
	}
	if cfg.Performance.BatchSize <= 0 {
		cfg.Performance.BatchSize = 100
	}
}

// WatchConfig 监听配置文件变更，重载后通过 Current 对外发布新配置
// 不回写旧指针，正在跑的组件在下个周期取新快照
func WatchConfig() {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		logger.SetLogLevel(newConfig.Log.Level)
	})
}
