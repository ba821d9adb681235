package writer

import (
	"context"
	"time"

	"trench-radar/internal/scanner/model"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const RETRY_COUNT = 3

// AlertEvent 提醒事件，发布给下游消费方
type AlertEvent struct {
	EventType    string   `json:"event_type"`
	ChainID      string   `json:"chain_id"`
	PairAddress  string   `json:"pair_address"`
	TokenAddress string   `json:"token_address"`
	TokenSymbol  string   `json:"token_symbol"`
	AlertedAt    int64    `json:"alerted_at"`
	PriceUsd     float64  `json:"price_usd"`
	MarketCap    *float64 `json:"market_cap"`
	FlowScore    int      `json:"flow_score"`
	FlowLabel    string   `json:"flow_label"`
}

// KafkaAlertWriter 把提醒事件写进 Kafka，mq 为空时降级为空操作
type KafkaAlertWriter struct {
	mq *kafka.Writer
	tl *zap.Logger

	topic string
}

func NewKafkaAlertWriter(mq *kafka.Writer, tl *zap.Logger, topic string) *KafkaAlertWriter {
	return &KafkaAlertWriter{mq: mq, tl: tl, topic: topic}
}

func (w *KafkaAlertWriter) Write(ctx context.Context, alert *model.TokenAlert) error {
	if w.mq == nil || w.topic == "" {
		return nil
	}

	event := AlertEvent{
		EventType:    "token_alert",
		ChainID:      alert.ChainID,
		PairAddress:  alert.PairAddress,
		TokenAddress: alert.TokenAddress,
		TokenSymbol:  alert.TokenSymbol,
		AlertedAt:    alert.AlertedAt,
		PriceUsd:     alert.PriceUsd,
		MarketCap:    alert.MarketCap,
		FlowScore:    alert.FlowScore,
		FlowLabel:    alert.FlowLabel,
	}
	jsonData, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: w.topic,
		Key:   []byte(alert.TokenAddress),
		Value: jsonData,
	}

	newCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// 重试机制
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.mq.WriteMessages(newCtx, msg)
		if err == nil {
			return nil
		}
	}
	w.tl.Warn("❌ MQ write failed, exceeded the maximum number of retries", zap.Error(err))
	return err
}
