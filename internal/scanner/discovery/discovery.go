package discovery

import (
	"context"
	"strings"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/pkg/dexscreener"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// BaseToken 市场采样用的锚定代币
type BaseToken struct {
	Address string
	Label   string
}

var defaultBaseTokens = []BaseToken{
	{Address: "So11111111111111111111111111111111111111112", Label: "WSOL"},
	{Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Label: "USDC"},
}

// Candidate 发现阶段产出的候选交易对
type Candidate struct {
	PairAddress  string
	ChainID      string
	TokenAddress string
	Pair         dexscreener.Pair
	Source       string
	HotScore     float64
}

// Engine 候选发现引擎，搜索和热榜拉取结果带本地缓存节流
type Engine struct {
	dex       *dexscreener.Client
	cfg       *config.Config
	logger    *zap.Logger
	feedCache *cache.Cache
}

// NewEngine 创建发现引擎
func NewEngine(dex *dexscreener.Client, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		dex:       dex,
		cfg:       cfg,
		logger:    logger,
		feedCache: cache.New(5*time.Minute, time.Minute),
	}
}

// Discover 按配置模式发现候选交易对，同一地址只保留首个出现的条目
func (e *Engine) Discover(ctx context.Context) []Candidate {
	var candidates []Candidate
	switch e.cfg.Scanner.DiscoveryMode {
	case "market_sampler":
		candidates = e.marketSampler(ctx)
	case "fallback_search":
		candidates = e.fallbackSearch(ctx)
	case "hybrid":
		candidates = append(candidates, e.marketSampler(ctx)...)
		candidates = append(candidates, e.fallbackSearch(ctx)...)
		candidates = append(candidates, e.trendingFeeds(ctx)...)
	default:
		e.logger.Warn("unknown discovery mode, fallback to market sampler",
			zap.String("mode", e.cfg.Scanner.DiscoveryMode))
		candidates = e.marketSampler(ctx)
	}
	return dedupCandidates(candidates)
}

// marketSampler 以锚定代币的交易对为样本，取对手方代币作为候选
func (e *Engine) marketSampler(ctx context.Context) []Candidate {
	baseTokens := e.baseTokens()
	baseSet := make(map[string]struct{}, len(baseTokens))
	for _, bt := range baseTokens {
		baseSet[strings.ToLower(bt.Address)] = struct{}{}
	}

	var candidates []Candidate
	for _, bt := range baseTokens {
		pairs, err := e.dex.TokenPairs(ctx, e.cfg.Scanner.ChainID, []string{bt.Address}, 0)
		if err != nil {
			e.logger.Warn("market sampler fetch failed",
				zap.String("base_token", bt.Address), zap.Error(err))
			continue
		}
		for i := range pairs {
			if c, ok := e.candidateFromBase(&pairs[i], bt, baseSet); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

func (e *Engine) candidateFromBase(pair *dexscreener.Pair, bt BaseToken, baseSet map[string]struct{}) (Candidate, bool) {
	if pair.ChainID != e.cfg.Scanner.ChainID || pair.PairAddress == "" {
		return Candidate{}, false
	}

	baseLower := strings.ToLower(bt.Address)
	tokenAddress := ""
	switch {
	case strings.ToLower(pair.BaseToken.Address) == baseLower:
		tokenAddress = pair.QuoteToken.Address
	case strings.ToLower(pair.QuoteToken.Address) == baseLower:
		tokenAddress = pair.BaseToken.Address
	default:
		tokenAddress = pair.BaseToken.Address
		if tokenAddress == "" {
			tokenAddress = pair.QuoteToken.Address
		}
	}
	if tokenAddress == "" {
		return Candidate{}, false
	}
	// 对手方也是锚定代币时跳过，锚定对锚定不是目标交易对
	if _, isBase := baseSet[strings.ToLower(tokenAddress)]; isBase {
		return Candidate{}, false
	}

	return Candidate{
		PairAddress:  pair.PairAddress,
		ChainID:      pair.ChainID,
		TokenAddress: tokenAddress,
		Pair:         *pair,
		Source:       "market:" + bt.Label,
		HotScore:     pair.HotScore(),
	}, true
}

// fallbackSearch 关键词搜索，结果按刷新周期缓存
func (e *Engine) fallbackSearch(ctx context.Context) []Candidate {
	if len(e.cfg.Scanner.Queries) == 0 {
		e.logger.Warn("fallback search enabled but no queries configured")
		return nil
	}
	if cached, found := e.feedCache.Get("search"); found {
		return cached.([]Candidate)
	}

	var candidates []Candidate
	for _, query := range e.cfg.Scanner.Queries {
		pairs, err := e.dex.Search(ctx, query, 0)
		if err != nil {
			e.logger.Warn("search query failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for i := range pairs {
			p := &pairs[i]
			if p.ChainID == "" || p.PairAddress == "" || p.BaseToken.Address == "" {
				continue
			}
			candidates = append(candidates, Candidate{
				PairAddress:  p.PairAddress,
				ChainID:      p.ChainID,
				TokenAddress: p.BaseToken.Address,
				Pair:         *p,
				Source:       "fallback_search",
				HotScore:     p.HotScore(),
			})
		}
	}

	e.feedCache.Set("search", candidates, e.refreshTTL(e.cfg.Scanner.SearchRefreshSec))
	return candidates
}

// trendingFeeds 最新档案和付费加速两路热榜，取回代币地址后批量查交易对
func (e *Engine) trendingFeeds(ctx context.Context) []Candidate {
	if cached, found := e.feedCache.Get("trending"); found {
		return cached.([]Candidate)
	}

	maxTokens := e.cfg.Scanner.TrendingMaxTokens
	if maxTokens <= 0 {
		maxTokens = 30
	}

	type feedToken struct {
		address string
		source  string
	}
	var tokens []feedToken
	seen := make(map[string]struct{})

	profiles, err := e.dex.LatestTokenProfiles(ctx, 0)
	if err != nil {
		e.logger.Warn("token profiles fetch failed", zap.Error(err))
	}
	for _, p := range profiles {
		if p.ChainID != e.cfg.Scanner.ChainID || p.TokenAddress == "" {
			continue
		}
		if _, dup := seen[p.TokenAddress]; dup {
			continue
		}
		seen[p.TokenAddress] = struct{}{}
		tokens = append(tokens, feedToken{address: p.TokenAddress, source: "profile"})
	}

	boosts, err := e.dex.LatestTokenBoosts(ctx, 0)
	if err != nil {
		e.logger.Warn("token boosts fetch failed", zap.Error(err))
	}
	for _, b := range boosts {
		if b.ChainID != e.cfg.Scanner.ChainID || b.TokenAddress == "" {
			continue
		}
		if _, dup := seen[b.TokenAddress]; dup {
			continue
		}
		seen[b.TokenAddress] = struct{}{}
		tokens = append(tokens, feedToken{address: b.TokenAddress, source: "boost"})
	}

	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	var candidates []Candidate
	bySource := map[string][]string{}
	for _, t := range tokens {
		bySource[t.source] = append(bySource[t.source], t.address)
	}
	for source, addrs := range bySource {
		pairs, err := e.dex.TokenPairs(ctx, e.cfg.Scanner.ChainID, addrs, 0)
		if err != nil {
			e.logger.Warn("trending pairs fetch failed", zap.String("source", source), zap.Error(err))
			continue
		}
		for i := range pairs {
			p := &pairs[i]
			if p.PairAddress == "" || p.BaseToken.Address == "" {
				continue
			}
			candidates = append(candidates, Candidate{
				PairAddress:  p.PairAddress,
				ChainID:      p.ChainID,
				TokenAddress: p.BaseToken.Address,
				Pair:         *p,
				Source:       source,
				HotScore:     p.HotScore(),
			})
		}
	}

	e.feedCache.Set("trending", candidates, e.refreshTTL(e.cfg.Scanner.TrendingRefreshSec))
	return candidates
}

func (e *Engine) baseTokens() []BaseToken {
	if len(e.cfg.Scanner.MarketBaseTokens) == 0 {
		return defaultBaseTokens
	}
	tokens := make([]BaseToken, 0, len(e.cfg.Scanner.MarketBaseTokens))
	for _, addr := range e.cfg.Scanner.MarketBaseTokens {
		tokens = append(tokens, BaseToken{Address: addr, Label: "BASE"})
	}
	return tokens
}

func (e *Engine) refreshTTL(sec int) time.Duration {
	if sec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(sec) * time.Second
}

func dedupCandidates(candidates []Candidate) []Candidate {
	dedup := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(c.PairAddress)
		if _, dup := dedup[key]; dup {
			continue
		}
		dedup[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
