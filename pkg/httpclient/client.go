package httpclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

// ErrNoData 上游没有可用数据（非2xx且不可重试，或重试次数耗尽）
// 调用方应当降级为"本轮无数据"，不能当成致命错误
var ErrNoData = errors.New("httpclient: no data from upstream")

// HTTPClientConfig 配置参数
type HTTPClientConfig struct {
	Timeout         time.Duration // 单次请求超时时间
	MaxRPS          int           // 每秒请求数上限
	MaxConcurrency  int           // 并发请求上限
	RetryAttempts   int           // 最大尝试次数（含首次）
	RetryBaseDelay  time.Duration // 退避基础间隔
	CacheTTL        time.Duration // 默认缓存TTL
	CacheMaxEntries int           // 缓存条目上限
	UserAgent       string
}

// Metrics 请求计数回调，由调用方接到状态表/Prometheus
type Metrics interface {
	IncRequests()
	IncRateLimited()
	IncFailures()
	MarkSuccess()
}

// HTTPClient 带限流、缓存、重试的 HTTP JSON 客户端
type HTTPClient struct {
	client     *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	sem        chan struct{}
	cache      *cache.Cache
	cacheMax   int
	attempts   int
	baseDelay  time.Duration
	defaultTTL time.Duration
	metrics    Metrics
}

// NewHTTPClient 创建一个新的 HTTP 客户端
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger, metrics Metrics) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 1
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Second
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 512
	}

	// burst=1，保证最小请求间隔
	limiter := rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
			if cfg.UserAgent != "" {
				r.SetHeader("User-Agent", cfg.UserAgent)
			}
			r.SetHeader("Accept", "application/json")
			return nil
		})

	return &HTTPClient{
		client:     restyClient,
		logger:     logger,
		limiter:    limiter,
		sem:        make(chan struct{}, cfg.MaxConcurrency),
		cache:      cache.New(cfg.CacheTTL, time.Minute),
		cacheMax:   cfg.CacheMaxEntries,
		attempts:   cfg.RetryAttempts,
		baseDelay:  cfg.RetryBaseDelay,
		defaultTTL: cfg.CacheTTL,
		metrics:    metrics,
	}
}

// GetJSON 发起 GET 请求并解析响应，命中缓存时不出网
// ttl<=0 时使用默认TTL
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out interface{}, ttl time.Duration) error {
	return c.fetchJSON(ctx, "GET", url, nil, out, url, ttl)
}

// PostJSON 发起 POST 请求，cacheKey 为空时不缓存
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body interface{}, out interface{}, cacheKey string, ttl time.Duration) error {
	return c.fetchJSON(ctx, "POST", url, body, out, cacheKey, ttl)
}

func (c *HTTPClient) fetchJSON(ctx context.Context, method, url string, body, out interface{}, cacheKey string, ttl time.Duration) error {
	if cacheKey != "" {
		if raw, found := c.cache.Get(cacheKey); found {
			return sonic.Unmarshal(raw.([]byte), out)
		}
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			// 指数退避加抖动
			delay := c.baseDelay*(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(100*time.Millisecond)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		raw, retryable, err := c.doOnce(ctx, method, url, body)
		if err == nil {
			if cacheKey != "" {
				c.cacheSet(cacheKey, raw, ttl)
			}
			if c.metrics != nil {
				c.metrics.MarkSuccess()
			}
			return sonic.Unmarshal(raw, out)
		}
		if !retryable {
			c.logger.Warn("upstream returned non-retryable response",
				zap.String("url", url), zap.Error(err))
			return ErrNoData
		}
		lastErr = err
	}

	if c.metrics != nil {
		c.metrics.IncFailures()
	}
	c.logger.Warn("upstream retry exhausted", zap.String("url", url), zap.Error(lastErr))
	return ErrNoData
}

// doOnce 执行单次请求，返回响应体、是否可重试、错误
func (c *HTTPClient) doOnce(ctx context.Context, method, url string, body interface{}) ([]byte, bool, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	if c.metrics != nil {
		c.metrics.IncRequests()
	}

	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
		req.SetHeader("Content-Type", "application/json")
	}

	var resp *resty.Response
	var err error
	if method == "POST" {
		resp, err = req.Post(url)
	} else {
		resp, err = req.Get(url)
	}
	if err != nil {
		// 超时/连接错误等同于可重试的上游错误
		return nil, true, err
	}

	status := resp.StatusCode()
	switch {
	case status == 429 || status >= 500:
		if status == 429 && c.metrics != nil {
			c.metrics.IncRateLimited()
		}
		return nil, true, fmt.Errorf("status %d: %s", status, resp.String())
	case status/100 != 2:
		return nil, false, fmt.Errorf("status %d", status)
	}
	return resp.Bytes(), false, nil
}

// cacheSet 写缓存并维持条目上限，超限时按最近过期顺序淘汰
func (c *HTTPClient) cacheSet(key string, raw []byte, ttl time.Duration) {
	c.cache.Set(key, raw, ttl)
	if c.cache.ItemCount() <= c.cacheMax {
		return
	}
	c.cache.DeleteExpired()
	over := c.cache.ItemCount() - c.cacheMax
	if over <= 0 {
		return
	}
	type entry struct {
		key string
		exp int64
	}
	items := c.cache.Items()
	entries := make([]entry, 0, len(items))
	for k, it := range items {
		entries = append(entries, entry{key: k, exp: it.Expiration})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].exp < entries[j].exp })
	for i := 0; i < over && i < len(entries); i++ {
		c.cache.Delete(entries[i].key)
	}
}
