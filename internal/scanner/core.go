package scanner

import (
	"context"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/discovery"
	"trench-radar/internal/scanner/job"
	"trench-radar/internal/scanner/monitor"
	"trench-radar/internal/scanner/notifier"
	"trench-radar/internal/scanner/repository"
	"trench-radar/internal/scanner/service"
	"trench-radar/internal/scanner/writer"

	"go.uber.org/zap"
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)

	// 初始化repo
	repo := repository.New(cfg, logger)
	daos := dao.NewDAOManager(repo.GetDB(), repo.GetRDB())

	engine := discovery.NewEngine(repo.GetDexClient(), &cfg, logger)
	walletAnalyzer := service.NewWalletAnalyzer(&cfg, repo.GetHeliusClient(), daos.StateDAO, logger)
	intentAnalyzer := service.NewIntentAnalyzer(&cfg, repo.GetHeliusClient(), logger)
	metricsService := service.NewMetricsService(daos.StateDAO, logger)
	telegram := notifier.NewTelegramNotifier(cfg.Telegram, logger)
	alertWriter := writer.NewKafkaAlertWriter(repo.GetMQ(), logger, cfg.Kafka.TopicAlerts)

	// 一次性：老记录补齐起始价
	backfill := job.NewCalledPriceBackfill(daos, logger)
	scheduler.RegisterOnceJob("called_price_backfill", backfill.Run)

	// 定时：主扫描循环
	scan := job.NewScan(&cfg, daos, repo.GetDexClient(), engine,
		walletAnalyzer, intentAnalyzer, metricsService, telegram, alertWriter, logger)
	scheduler.RegisterJob("scan", time.Duration(cfg.Scanner.ScanIntervalSec)*time.Second, scan.Run)

	// 定时：业绩追踪
	performance := job.NewPerformance(&cfg, daos, repo.GetDexClient(), logger)
	scheduler.RegisterJob("performance", time.Duration(cfg.Performance.IntervalMin)*time.Minute, performance.Run)

	core := &Core{
		cfg:       cfg,
		repo:      repo,
		tl:        logger,
		scheduler: scheduler,
		metrics:   monitor.NewMetricsServer(cfg.Monitor),
	}
	return core
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting scanner core...")
	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 启动调度器
	c.scheduler.Start(ctx)
	c.tl.Info("Scanner started successfully")

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down scanner due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping scanner core...")

	// 停止调度器
	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}

	// 停止 Prometheus 监控服务
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.repo.Close()

	c.tl.Info("Scanner core stopped.")
}
