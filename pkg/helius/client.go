package helius

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"trench-radar/pkg/httpclient"
)

const defaultRESTBase = "https://api.helius.xyz"

// NativeTransfer SOL 原生转账明细
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

// TokenTransfer SPL 代币转账明细
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// SwapTokenAmount swap 事件里一侧的代币数量
type SwapTokenAmount struct {
	UserAccount string  `json:"userAccount"`
	Mint        string  `json:"mint"`
	TokenAmount float64 `json:"tokenAmount"`
}

// SwapNativeAmount swap 事件里一侧的 SOL 数量（lamports，字符串编码）
type SwapNativeAmount struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// SwapEvent 已解析的 swap 事件
type SwapEvent struct {
	User         string            `json:"user"`
	NativeInput  *SwapNativeAmount `json:"nativeInput"`
	NativeOutput *SwapNativeAmount `json:"nativeOutput"`
	TokenInputs  []SwapTokenAmount `json:"tokenInputs"`
	TokenOutputs []SwapTokenAmount `json:"tokenOutputs"`
}

// TransactionEvents 已解析交易携带的事件
type TransactionEvents struct {
	Swap *SwapEvent `json:"swap"`
}

// ParsedTransaction 增强接口返回的已解析交易
type ParsedTransaction struct {
	Signature       string             `json:"signature"`
	Timestamp       int64              `json:"timestamp"`
	Type            string             `json:"type"`
	Source          string             `json:"source"`
	Fee             int64              `json:"fee"`
	FeePayer        string             `json:"feePayer"`
	NativeTransfers []NativeTransfer   `json:"nativeTransfers"`
	TokenTransfers  []TokenTransfer    `json:"tokenTransfers"`
	Events          *TransactionEvents `json:"events"`
}

// Client Helius 客户端，RPC 走 solana-go，增强接口走 REST
type Client struct {
	rpcClient *rpc.Client
	http      *httpclient.HTTPClient
	restBase  string
	apiKey    string
	logger    *zap.Logger
}

// NewClient 创建 Helius 客户端
func NewClient(rpcURL, restBase, apiKey string, http *httpclient.HTTPClient, logger *zap.Logger) *Client {
	if restBase == "" {
		restBase = defaultRESTBase
	}
	return &Client{
		rpcClient: rpc.New(rpcURL),
		http:      http,
		restBase:  strings.TrimRight(restBase, "/"),
		apiKey:    apiKey,
		logger:    logger,
	}
}

// RPC 返回底层 RPC 客户端
func (c *Client) RPC() *rpc.Client {
	return c.rpcClient
}

// GetBalanceSol 查询钱包 SOL 余额
func (c *Client) GetBalanceSol(ctx context.Context, address string) (float64, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid wallet address %s: %w", address, err)
	}
	res, err := c.rpcClient.GetBalance(ctx, pub, rpc.CommitmentFinalized)
	if err != nil {
		return 0, err
	}
	// lamports -> SOL
	return float64(res.Value) / 1e9, nil
}

// GetSignaturesPage 分页拉取钱包签名，before 为零值时从最新开始
func (c *Client) GetSignaturesPage(ctx context.Context, address string, limit int, before solana.Signature) ([]*rpc.TransactionSignature, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %s: %w", address, err)
	}
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	}
	if !before.IsZero() {
		opts.Before = before
	}
	return c.rpcClient.GetSignaturesForAddressWithOpts(ctx, pub, opts)
}

// GetParsedTransactions 拉取地址最近的已解析交易，before 传签名用于向前翻页
func (c *Client) GetParsedTransactions(ctx context.Context, address, before string, limit int, ttl time.Duration) ([]ParsedTransaction, error) {
	u := fmt.Sprintf("%s/v0/addresses/%s/transactions?api-key=%s&limit=%d", c.restBase, address, c.apiKey, limit)
	if before != "" {
		u += "&before=" + before
	}
	var txs []ParsedTransaction
	if err := c.http.GetJSON(ctx, u, &txs, ttl); err != nil {
		return nil, err
	}
	return txs, nil
}
