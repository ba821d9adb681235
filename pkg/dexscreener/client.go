package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"trench-radar/pkg/httpclient"
)

const (
	defaultBaseURL = "https://api.dexscreener.com"

	// 每次 tokens/v1 批量查询最多30个地址
	maxTokenBatch = 30
)

// Client DexScreener API 客户端
type Client struct {
	http    *httpclient.HTTPClient
	baseURL string
	logger  *zap.Logger
}

// NewClient 创建 DexScreener 客户端
func NewClient(http *httpclient.HTTPClient, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type searchResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Search 按关键词搜索交易对
func (c *Client) Search(ctx context.Context, query string, ttl time.Duration) ([]Pair, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))
	var resp searchResponse
	if err := c.http.GetJSON(ctx, u, &resp, ttl); err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Pairs, nil
}

// TokenPairs 按代币地址批量查询交易对，超过批量上限时分批请求
func (c *Client) TokenPairs(ctx context.Context, chainID string, addresses []string, ttl time.Duration) ([]Pair, error) {
	var all []Pair
	for start := 0; start < len(addresses); start += maxTokenBatch {
		end := start + maxTokenBatch
		if end > len(addresses) {
			end = len(addresses)
		}
		u := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, chainID, strings.Join(addresses[start:end], ","))
		var pairs []Pair
		if err := c.http.GetJSON(ctx, u, &pairs, ttl); err != nil {
			if errors.Is(err, httpclient.ErrNoData) {
				continue
			}
			return all, err
		}
		all = append(all, pairs...)
	}
	return all, nil
}

type pairResponse struct {
	Pairs []Pair `json:"pairs"`
	Pair  *Pair  `json:"pair"`
}

// PairDetail 查询单个交易对的最新快照
func (c *Client) PairDetail(ctx context.Context, chainID, pairAddress string, ttl time.Duration) (*Pair, error) {
	u := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.baseURL, chainID, pairAddress)
	var resp pairResponse
	if err := c.http.GetJSON(ctx, u, &resp, ttl); err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	if resp.Pair != nil {
		return resp.Pair, nil
	}
	if len(resp.Pairs) > 0 {
		return &resp.Pairs[0], nil
	}
	return nil, nil
}

// LatestTokenProfiles 最新代币档案列表
func (c *Client) LatestTokenProfiles(ctx context.Context, ttl time.Duration) ([]TokenProfile, error) {
	u := c.baseURL + "/token-profiles/latest/v1"
	var profiles []TokenProfile
	if err := c.http.GetJSON(ctx, u, &profiles, ttl); err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	return profiles, nil
}

// LatestTokenBoosts 最新付费加速列表
func (c *Client) LatestTokenBoosts(ctx context.Context, ttl time.Duration) ([]TokenBoost, error) {
	u := c.baseURL + "/token-boosts/latest/v1"
	var boosts []TokenBoost
	if err := c.http.GetJSON(ctx, u, &boosts, ttl); err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	return boosts, nil
}
