package job

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/dao"
	"trench-radar/internal/scanner/discovery"
	"trench-radar/internal/scanner/eligibility"
	"trench-radar/internal/scanner/filter"
	"trench-radar/internal/scanner/flow"
	"trench-radar/internal/scanner/model"
	"trench-radar/internal/scanner/monitor"
	"trench-radar/internal/scanner/notifier"
	"trench-radar/internal/scanner/service"
	"trench-radar/internal/scanner/writer"
	"trench-radar/pkg/dexscreener"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Scan 扫描主作业，一轮 = 发现、入池、复查热集、过滤、状态机、外发
type Scan struct {
	cfg         *config.Config
	daos        *dao.DAOManager
	dex         *dexscreener.Client
	engine      *discovery.Engine
	wallet      *service.WalletAnalyzer
	intent      *service.IntentAnalyzer
	metrics     *service.MetricsService
	notify      notifier.Notifier
	alertWriter *writer.KafkaAlertWriter
	logger      *zap.Logger

	// 扫描锁不可重入，上一轮未结束时本轮直接跳过
	running atomic.Bool

	// 正在富化的代币集合，保证同一代币同时只有一个富化任务
	inflightMu sync.Mutex
	inflight   map[string]struct{}
	enrichSem  chan struct{}
}

// NewScan 创建扫描作业
func NewScan(
	cfg *config.Config,
	daos *dao.DAOManager,
	dex *dexscreener.Client,
	engine *discovery.Engine,
	wallet *service.WalletAnalyzer,
	intent *service.IntentAnalyzer,
	metrics *service.MetricsService,
	notify notifier.Notifier,
	alertWriter *writer.KafkaAlertWriter,
	logger *zap.Logger,
) *Scan {
	enrichConcurrency := cfg.Wallet.Concurrency
	if enrichConcurrency <= 0 {
		enrichConcurrency = 2
	}
	return &Scan{
		cfg:         cfg,
		daos:        daos,
		dex:         dex,
		engine:      engine,
		wallet:      wallet,
		intent:      intent,
		metrics:     metrics,
		notify:      notify,
		alertWriter: alertWriter,
		logger:      logger,
		inflight:    make(map[string]struct{}),
		enrichSem:   make(chan struct{}, enrichConcurrency),
	}
}

// Run 执行一轮扫描
func (j *Scan) Run(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		j.metrics.RecordOverlap(ctx)
		j.logger.Warn("previous scan still running, skip this cycle")
		return nil
	}
	defer j.running.Store(false)

	// 热更新后的配置在每轮开始时生效
	if cur := config.Current(); cur != nil {
		j.cfg = cur
	}

	if paused, err := j.daos.StateDAO.IsPaused(ctx); err == nil && paused {
		j.logger.Info("scanning is paused, skip this cycle")
		return nil
	}

	start := time.Now()
	now := start.Unix()
	mutedUntil, _ := j.daos.StateDAO.MutedUntil(ctx)
	muted := mutedUntil > now

	candidates := j.engine.Discover(ctx)
	j.updatePool(ctx, candidates, now)
	candidates = append(candidates, j.recheckHotSet(ctx, candidates, now)...)
	candidates = capByHotScore(candidates, j.cfg.Scanner.MaxPairsPerScan)

	eligibleCount := 0
	alertsSent := 0
	groups := groupByToken(candidates)
	for tokenAddress, group := range groups {
		rep, result := j.pickRepresentative(group)
		if result.Passed {
			eligibleCount++
		} else {
			j.metrics.RecordFilterRejections(ctx, result.Reasons)
		}

		sent, err := j.evaluateToken(ctx, tokenAddress, rep, result, now, muted, alertsSent)
		if err != nil {
			j.logger.Warn("token evaluation failed",
				zap.String("token", tokenAddress), zap.Error(err))
			continue
		}
		if sent {
			alertsSent++
		}
	}

	j.metrics.RecordCycle(ctx, len(candidates), len(groups), eligibleCount, time.Since(start))
	j.logger.Info("scan cycle finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("tokens", len(groups)),
		zap.Int("eligible", eligibleCount),
		zap.Int("alerts", alertsSent),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// updatePool 候选入池，之后按保留期清理并裁剪到容量上限
func (j *Scan) updatePool(ctx context.Context, candidates []discovery.Candidate, now int64) {
	entries := make([]*model.PairPoolEntry, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		snapshot, err := sonic.Marshal(c.Pair)
		if err != nil {
			continue
		}
		entries = append(entries, &model.PairPoolEntry{
			PairAddress:  c.PairAddress,
			ChainID:      c.ChainID,
			TokenAddress: c.TokenAddress,
			TokenSymbol:  c.Pair.BaseToken.Symbol,
			TokenName:    c.Pair.BaseToken.Name,
			Source:       c.Source,
			FirstSeenAt:  now,
			LastSeenAt:   now,
			LastHotScore: c.HotScore,
			Snapshot:     datatypes.JSON(snapshot),
		})
	}
	if err := j.daos.PoolDAO.UpsertBatch(ctx, entries); err != nil {
		j.logger.Warn("pool upsert failed", zap.Error(err))
	}

	cutoff := now - int64(j.cfg.Scanner.PoolRetentionHours)*3600
	if _, err := j.daos.PoolDAO.Purge(ctx, cutoff); err != nil {
		j.logger.Warn("pool purge failed", zap.Error(err))
	}
	if _, err := j.daos.PoolDAO.TrimToMax(ctx, j.cfg.Scanner.PoolMaxSize); err != nil {
		j.logger.Warn("pool trim failed", zap.Error(err))
	}
	if count, err := j.daos.PoolDAO.Count(ctx); err == nil {
		monitor.PoolSize.Set(float64(count))
	}
}

// recheckHotSet 热集中本轮没新鲜数据的交易对单独重拉一次
func (j *Scan) recheckHotSet(ctx context.Context, fresh []discovery.Candidate, now int64) []discovery.Candidate {
	hot, err := j.daos.PoolDAO.HotSet(ctx, j.cfg.Scanner.HotTopN)
	if err != nil {
		j.logger.Warn("hot set query failed", zap.Error(err))
		return nil
	}

	freshSet := make(map[string]struct{}, len(fresh))
	for _, c := range fresh {
		freshSet[strings.ToLower(c.PairAddress)] = struct{}{}
	}

	var extra []discovery.Candidate
	var checked []string
	for _, entry := range hot {
		checked = append(checked, entry.PairAddress)
		if _, ok := freshSet[strings.ToLower(entry.PairAddress)]; ok {
			continue
		}
		pair, err := j.dex.PairDetail(ctx, entry.ChainID, entry.PairAddress, 0)
		if err != nil || pair == nil {
			continue
		}
		tokenAddress := entry.TokenAddress
		if tokenAddress == "" {
			tokenAddress = pair.BaseToken.Address
		}
		extra = append(extra, discovery.Candidate{
			PairAddress:  pair.PairAddress,
			ChainID:      pair.ChainID,
			TokenAddress: tokenAddress,
			Pair:         *pair,
			Source:       "hot_pool",
			HotScore:     pair.HotScore(),
		})
	}

	if err := j.daos.PoolDAO.MarkChecked(ctx, checked, now); err != nil {
		j.logger.Warn("hot set mark checked failed", zap.Error(err))
	}
	return extra
}

// capByHotScore 候选超出单轮上限时按热度取前 limit 个
func capByHotScore(candidates []discovery.Candidate, limit int) []discovery.Candidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].HotScore > candidates[b].HotScore
	})
	return candidates[:limit]
}

func groupByToken(candidates []discovery.Candidate) map[string][]discovery.Candidate {
	groups := make(map[string][]discovery.Candidate)
	for _, c := range candidates {
		if c.TokenAddress == "" {
			continue
		}
		key := strings.ToLower(c.TokenAddress)
		groups[key] = append(groups[key], c)
	}
	return groups
}

// pickRepresentative 同一代币多个候选时取通过过滤里热度最高的
// 全部未通过时取热度最高的那个作为未通过代表
func (j *Scan) pickRepresentative(group []discovery.Candidate) (*discovery.Candidate, filter.Result) {
	var bestPassing *discovery.Candidate
	var bestPassingResult filter.Result
	var bestAny *discovery.Candidate
	var bestAnyResult filter.Result

	for i := range group {
		c := &group[i]
		result := filter.EvaluatePair(&c.Pair, j.cfg.Scanner.Filters)
		if bestAny == nil || c.HotScore > bestAny.HotScore {
			bestAny = c
			bestAnyResult = result
		}
		if result.Passed && (bestPassing == nil || c.HotScore > bestPassing.HotScore) {
			bestPassing = c
			bestPassingResult = result
		}
	}
	if bestPassing != nil {
		return bestPassing, bestPassingResult
	}
	return bestAny, bestAnyResult
}

// evaluateToken 跑状态机、落库，需要时外发提醒并调度异步富化
func (j *Scan) evaluateToken(
	ctx context.Context,
	tokenAddress string,
	rep *discovery.Candidate,
	result filter.Result,
	now int64,
	muted bool,
	alertsSentThisCycle int,
) (bool, error) {
	record, err := j.daos.TokenDAO.GetByAddress(ctx, rep.TokenAddress)
	if err != nil {
		return false, err
	}

	state := eligibility.State{}
	if record != nil {
		state.LastEligible = &record.LastEligible
		state.LastAlertedAt = record.LastAlertedAt
		state.LastIneligibleAt = record.LastIneligibleAt
	}
	decision := eligibility.EvaluateTransition(now, result.Passed, state,
		int64(j.cfg.Scanner.DedupWindowMin)*60,
		int64(j.cfg.Scanner.RearmCooldownMin)*60)

	snapshot, _ := sonic.Marshal(rep.Pair)
	token := &model.Token{
		TokenAddress:     rep.TokenAddress,
		ChainID:          rep.ChainID,
		PairAddress:      rep.PairAddress,
		Symbol:           rep.Pair.BaseToken.Symbol,
		Name:             rep.Pair.BaseToken.Name,
		FirstSeenAt:      now,
		LastSeenAt:       now,
		LastEligible:     decision.LastEligible,
		LastIneligibleAt: decision.LastIneligibleAt,
		LastSnapshot:     datatypes.JSON(snapshot),
		LastReasons:      result.Reasons,
	}
	checkedAt := now
	token.LastCheckedAt = &checkedAt
	if record != nil {
		token.FirstSeenAt = record.FirstSeenAt
		token.LastAlertedAt = record.LastAlertedAt
		token.AlertCount = record.AlertCount
		token.LastEligibleAt = record.LastEligibleAt
		token.EligibleFirstAt = record.EligibleFirstAt
		token.EligibleFirstSnapshot = record.EligibleFirstSnapshot
		token.CalledPrice = record.CalledPrice
	}
	if decision.Eligible {
		token.LastEligibleAt = &now
	}
	neverEligibleBefore := record == nil || record.EligibleFirstAt == nil
	if decision.Eligible && neverEligibleBefore {
		token.EligibleFirstAt = &now
		token.EligibleFirstSnapshot = datatypes.JSON(snapshot)
		if price, ok := parsePrice(rep.Pair.PriceUsd); ok {
			token.CalledPrice = &price
		}
	} else if record != nil && record.EligibleFirstAt != nil && record.CalledPrice == nil {
		// 首次达标那轮缺价时，用达标之后第一个拿到的价格补上
		if price, ok := parsePrice(rep.Pair.PriceUsd); ok {
			token.CalledPrice = &price
		}
	}

	sent := false
	if decision.ShouldAlert {
		// 状态机之外再兜一道底，历史上发过提醒的代币不再发
		alreadyAlerted := record != nil && record.LastAlertedAt != nil
		switch {
		case alreadyAlerted:
			j.metrics.RecordSuppressed(ctx, "already_alerted")
		case muted:
			j.metrics.RecordSuppressed(ctx, "muted")
		case j.cfg.Scanner.MaxAlertsPerScan > 0 && alertsSentThisCycle >= j.cfg.Scanner.MaxAlertsPerScan:
			j.metrics.RecordSuppressed(ctx, "max_alerts_per_scan")
		case len(j.destinations()) == 0 && !j.cfg.Scanner.DryRun:
			j.metrics.RecordSuppressed(ctx, "no_destinations")
		default:
			// 提醒记录表再兜一道底，防止状态缓存丢失后重复外发
			if alerted, err := j.daos.AlertDAO.HasAlerted(ctx, rep.PairAddress); err == nil && alerted {
				j.metrics.RecordSuppressed(ctx, "already_alerted")
				break
			}
			sent = j.sendAlert(ctx, rep, result, now)
			if sent {
				token.LastAlertedAt = &now
				token.AlertCount++
			}
		}
	} else if decision.Reason == "dedupe_window" || decision.Reason == "rearm_wait" {
		j.metrics.RecordSuppressed(ctx, decision.Reason)
	}

	if err := j.daos.TokenDAO.Upsert(ctx, token); err != nil {
		return sent, err
	}
	return sent, nil
}

// sendAlert 外发一条提醒，落库并调度异步富化
func (j *Scan) sendAlert(ctx context.Context, rep *discovery.Candidate, result filter.Result, now int64) bool {
	flowSnap := flow.Compute(&rep.Pair, j.cfg.Flow, nil)
	payload := j.buildPayload(rep, result, flowSnap, now)

	var refs []notifier.MessageRef
	if j.cfg.Scanner.DryRun {
		j.logger.Info("dry run alert",
			zap.String("pair", rep.PairAddress),
			zap.String("token", rep.TokenAddress),
			zap.String("symbol", rep.Pair.BaseToken.Symbol),
			zap.Int("flow_score", flowSnap.Score),
			zap.String("flow_label", flowSnap.Label))
	} else {
		refs = j.notify.PostAlert(ctx, j.destinations(), payload)
		if len(refs) == 0 {
			j.logger.Warn("alert delivery failed on all destinations",
				zap.String("pair", rep.PairAddress))
		}
	}

	var flowReasons []string
	if flowSnap.Gate5m {
		flowReasons = append(flowReasons, "gate_5m")
	}
	if flowSnap.Gate1h {
		flowReasons = append(flowReasons, "gate_1h")
	}

	snapshot, _ := sonic.Marshal(rep.Pair)
	price, _ := parsePrice(rep.Pair.PriceUsd)
	alert := &model.TokenAlert{
		ChainID:      rep.ChainID,
		PairAddress:  rep.PairAddress,
		TokenAddress: rep.TokenAddress,
		TokenSymbol:  rep.Pair.BaseToken.Symbol,
		TokenName:    rep.Pair.BaseToken.Name,
		AlertedAt:    now,
		PriceUsd:     price,
		MarketCap:    result.Metrics.MarketCapValue,
		Volume1h:     result.Metrics.Volume1h,
		FlowScore:    flowSnap.Score,
		FlowLabel:    flowSnap.Label,
		FlowReasons:  flowReasons,
		Snapshot:     datatypes.JSON(snapshot),
		DryRun:       j.cfg.Scanner.DryRun,
	}
	if rep.Pair.Liquidity != nil {
		alert.LiquidityUsd = rep.Pair.Liquidity.Usd
	}
	if len(refs) > 0 {
		alert.MessageID = &refs[0].MessageID
	}
	if err := j.daos.AlertDAO.Create(ctx, alert); err != nil {
		j.logger.Warn("alert record insert failed", zap.Error(err))
	}
	if err := j.alertWriter.Write(ctx, alert); err != nil {
		j.logger.Warn("alert event publish failed", zap.Error(err))
	}

	lagSec := int64(0)
	if rep.Pair.PairCreatedAt > 0 {
		lagSec = now - rep.Pair.PairCreatedAt/1000
	}
	j.metrics.RecordAlert(ctx, lagSec)

	j.scheduleEnrichment(rep.PairAddress, rep.TokenAddress, refs, payload)
	return true
}

func (j *Scan) buildPayload(rep *discovery.Candidate, result filter.Result, flowSnap flow.Snapshot, now int64) *notifier.AlertPayload {
	price, _ := parsePrice(rep.Pair.PriceUsd)
	payload := &notifier.AlertPayload{
		ChainID:        rep.ChainID,
		PairAddress:    rep.PairAddress,
		TokenAddress:   rep.TokenAddress,
		Symbol:         rep.Pair.BaseToken.Symbol,
		Name:           rep.Pair.BaseToken.Name,
		PairURL:        rep.Pair.URL,
		PriceUsd:       price,
		MarketCapLabel: result.Metrics.MarketCapLabel,
		MarketCap:      result.Metrics.MarketCapValue,
		Volume1h:       result.Metrics.Volume1h,
		Change1h:       result.Metrics.Change1h,
		Change6h:       result.Metrics.Change6h,
		Change24h:      result.Metrics.Change24h,
		Flow:           flowSnap,
		AlertedAt:      now,
	}
	if rep.Pair.Liquidity != nil {
		payload.LiquidityUsd = rep.Pair.Liquidity.Usd
	}
	return payload
}

// scheduleEnrichment 异步钱包和意图分析，不阻塞扫描循环
// 同一代币只允许一个在途任务，整体再受并发上限约束
func (j *Scan) scheduleEnrichment(pairAddress, tokenAddress string, refs []notifier.MessageRef, payload *notifier.AlertPayload) {
	key := strings.ToLower(tokenAddress)
	j.inflightMu.Lock()
	if _, busy := j.inflight[key]; busy {
		j.inflightMu.Unlock()
		return
	}
	j.inflight[key] = struct{}{}
	j.inflightMu.Unlock()

	go func() {
		defer func() {
			j.inflightMu.Lock()
			delete(j.inflight, key)
			j.inflightMu.Unlock()
		}()
		j.enrichSem <- struct{}{}
		defer func() { <-j.enrichSem }()

		// 富化不能随扫描周期取消，用独立的超时上下文
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		walletResult, err := j.wallet.Analyze(ctx, pairAddress, tokenAddress)
		if err != nil {
			j.logger.Warn("wallet analysis failed",
				zap.String("pair", pairAddress), zap.Error(err))
		}
		intentResult, err := j.intent.Analyze(ctx, pairAddress, tokenAddress)
		if err != nil {
			j.logger.Warn("intent analysis failed",
				zap.String("pair", pairAddress), zap.Error(err))
		}
		if walletResult == nil && intentResult == nil {
			return
		}

		now := time.Now().Unix()
		updates := map[string]interface{}{}
		if walletResult != nil {
			if data, err := sonic.Marshal(walletResult); err == nil {
				updates["wallet_analysis"] = datatypes.JSON(data)
				updates["wallet_checked_at"] = now
			}
		}
		if intentResult != nil {
			if data, err := sonic.Marshal(intentResult); err == nil {
				updates["intent_analysis"] = datatypes.JSON(data)
				updates["intent_checked_at"] = now
			}
		}
		if err := j.daos.TokenDAO.UpdateEnrichment(ctx, tokenAddress, updates); err != nil {
			j.logger.Warn("enrichment persist failed",
				zap.String("token", tokenAddress), zap.Error(err))
		}

		payload.Wallet = walletResult
		payload.Intent = intentResult
		for _, ref := range refs {
			if err := j.notify.EditAlert(ctx, ref, payload); err != nil {
				j.logger.Warn("alert edit failed, posting followup",
					zap.String("destination", ref.Destination), zap.Error(err))
				if err := j.notify.PostFollowup(ctx, ref.Destination, payload); err != nil {
					j.logger.Warn("followup delivery failed",
						zap.String("destination", ref.Destination), zap.Error(err))
				}
			}
		}
	}()
}

func (j *Scan) destinations() []string {
	if !j.cfg.Telegram.Enable || j.cfg.Telegram.ChatID == "" {
		return nil
	}
	return []string{j.cfg.Telegram.ChatID}
}

func parsePrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
