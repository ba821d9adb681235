package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"trench-radar/internal/scanner/config"
	"trench-radar/internal/scanner/model"
	"trench-radar/pkg/helius"

	"go.uber.org/zap"
)

const (
	intentMinSample    = 5
	intentMaxGapSec    = 90.0
	intentMaxBuyCV     = 1.0
	intentMaxSellRatio = 0.35
)

// IntentAnalyzer 交易对近期成交意图评分服务
type IntentAnalyzer struct {
	cfg    *config.Config
	helius *helius.Client
	logger *zap.Logger
}

// NewIntentAnalyzer 创建意图分析服务
func NewIntentAnalyzer(cfg *config.Config, heliusClient *helius.Client, logger *zap.Logger) *IntentAnalyzer {
	return &IntentAnalyzer{
		cfg:    cfg,
		helius: heliusClient,
		logger: logger,
	}
}

type swapSample struct {
	ts     int64
	isBuy  bool
	solIn  float64
}

// Analyze 抽样交易对最近的 swap，按买入节奏、买单大小离散度、卖压三项打分
// 样本不足的判据不加分也不扣分，只标记 partial
func (a *IntentAnalyzer) Analyze(ctx context.Context, pairAddress, tokenAddress string) (*model.IntentAnalysisResult, error) {
	txs, err := a.helius.GetParsedTransactions(ctx, pairAddress, "", maxTxPageSize, 5*time.Second)
	if err != nil {
		return nil, err
	}

	tokenLC := strings.ToLower(tokenAddress)
	var samples []swapSample
	for i := range txs {
		if s, ok := a.classify(&txs[i], tokenLC); ok {
			samples = append(samples, s)
		}
	}

	result := &model.IntentAnalysisResult{
		SampleSize: len(samples),
		CheckedAt:  time.Now().Unix(),
	}

	var buyTimes []int64
	var buySizes []float64
	for _, s := range samples {
		if s.isBuy {
			result.BuyCount++
			if s.ts > 0 {
				buyTimes = append(buyTimes, s.ts)
			}
			if s.solIn > 0 {
				buySizes = append(buySizes, s.solIn)
			}
		} else {
			result.SellCount++
		}
	}

	// 买入间隔聚集度
	if len(buyTimes) >= intentMinSample {
		sort.Slice(buyTimes, func(i, j int) bool { return buyTimes[i] < buyTimes[j] })
		gaps := make([]float64, 0, len(buyTimes)-1)
		for i := 1; i < len(buyTimes); i++ {
			gaps = append(gaps, float64(buyTimes[i]-buyTimes[i-1]))
		}
		sort.Float64s(gaps)
		medianGap := gaps[len(gaps)/2]
		result.MedianGap = &medianGap
		if medianGap <= intentMaxGapSec {
			result.Score++
		}
	} else {
		result.Partial = true
	}

	// 买单大小变异系数
	if len(buySizes) >= intentMinSample {
		cv := coefficientOfVariation(buySizes)
		result.BuySizeCV = &cv
		if cv <= intentMaxBuyCV {
			result.Score++
		}
	} else {
		result.Partial = true
	}

	// 卖压占比
	total := result.BuyCount + result.SellCount
	if total >= intentMinSample {
		ratio := float64(result.SellCount) / float64(total)
		result.SellRatio = &ratio
		if ratio <= intentMaxSellRatio {
			result.Score++
		}
	} else {
		result.Partial = true
	}

	return result, nil
}

// classify 目标代币在输出侧算买入，在输入侧算卖出，其余跳过
func (a *IntentAnalyzer) classify(tx *helius.ParsedTransaction, tokenLC string) (swapSample, bool) {
	if tx.Events == nil || tx.Events.Swap == nil {
		return swapSample{}, false
	}
	swap := tx.Events.Swap
	s := swapSample{ts: tx.Timestamp}
	switch {
	case hasMint(swap.TokenOutputs, tokenLC):
		s.isBuy = true
		if swap.NativeInput != nil {
			if lamports, err := strconv.ParseFloat(swap.NativeInput.Amount, 64); err == nil {
				s.solIn = lamports / 1e9
			}
		}
	case hasMint(swap.TokenInputs, tokenLC):
		s.isBuy = false
	default:
		return swapSample{}, false
	}
	return s, true
}

func coefficientOfVariation(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}
