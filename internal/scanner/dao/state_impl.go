package dao

import (
	"context"
	"errors"
	"strconv"
	"time"

	"trench-radar/internal/scanner/model"
	"trench-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// stateDAO 实现StateDAO接口
type stateDAO struct {
	rds *redis.Client
}

// NewStateDAO 创建StateDAO实例
func NewStateDAO(rds *redis.Client) StateDAO {
	return &stateDAO{rds: rds}
}

func (s *stateDAO) IncrCounter(ctx context.Context, name string) (int64, error) {
	return s.rds.Incr(ctx, utils.MetricsKey(name)).Result()
}

func (s *stateDAO) IncrCounterBy(ctx context.Context, name string, delta int64) (int64, error) {
	return s.rds.IncrBy(ctx, utils.MetricsKey(name), delta).Result()
}

func (s *stateDAO) GetCounter(ctx context.Context, name string) (int64, error) {
	val, err := s.rds.Get(ctx, utils.MetricsKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// IncrRate 按窗口起点分桶，桶保留两个窗口后过期
func (s *stateDAO) IncrRate(ctx context.Context, name string, now int64, windowSec int) error {
	start := now - now%int64(windowSec)
	key := utils.RateWindowKey(name, start)
	pipe := s.rds.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Duration(2*windowSec)*time.Second)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *stateDAO) RateCount(ctx context.Context, name string, now int64, windowSec int) (int64, error) {
	start := now - now%int64(windowSec)
	val, err := s.rds.Get(ctx, utils.RateWindowKey(name, start)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *stateDAO) IncrDaily(ctx context.Context, name, day string) (int64, error) {
	key := utils.DailyCounterKey(name, day)
	pipe := s.rds.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *stateDAO) GetDaily(ctx context.Context, name, day string) (int64, error) {
	val, err := s.rds.Get(ctx, utils.DailyCounterKey(name, day)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *stateDAO) PushAlertLagSample(ctx context.Context, lagMs int64, keep int64) error {
	key := utils.AlertLagSamplesKey()
	pipe := s.rds.Pipeline()
	pipe.LPush(ctx, key, lagMs)
	pipe.LTrim(ctx, key, 0, keep-1)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *stateDAO) AlertLagSamples(ctx context.Context, limit int64) ([]int64, error) {
	vals, err := s.rds.LRange(ctx, utils.AlertLagSamplesKey(), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	samples := make([]int64, 0, len(vals))
	for _, v := range vals {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		samples = append(samples, n)
	}
	return samples, nil
}

func (s *stateDAO) SetWalletReport(ctx context.Context, report *model.WalletReport, ttl time.Duration) error {
	data, err := sonic.Marshal(report)
	if err != nil {
		return err
	}
	return s.rds.Set(ctx, utils.WalletReportKey(report.WalletAddress), string(data), ttl).Err()
}

func (s *stateDAO) GetWalletReport(ctx context.Context, walletAddress string) (*model.WalletReport, error) {
	raw, err := s.rds.Get(ctx, utils.WalletReportKey(walletAddress)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var report model.WalletReport
	if err := sonic.Unmarshal([]byte(raw), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *stateDAO) SetLastAPISuccess(ctx context.Context, ts int64) error {
	return s.rds.Set(ctx, utils.MetricsKey("last_api_success"), ts, 0).Err()
}

func (s *stateDAO) GetLastAPISuccess(ctx context.Context) (int64, error) {
	return s.GetCounter(ctx, "last_api_success")
}

func (s *stateDAO) SetPaused(ctx context.Context, paused bool) error {
	val := "0"
	if paused {
		val = "1"
	}
	return s.rds.Set(ctx, utils.MetricsKey("paused"), val, 0).Err()
}

func (s *stateDAO) IsPaused(ctx context.Context) (bool, error) {
	val, err := s.rds.Get(ctx, utils.MetricsKey("paused")).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val == "1", nil
}

func (s *stateDAO) SetMutedUntil(ctx context.Context, until int64) error {
	return s.rds.Set(ctx, utils.MetricsKey("muted_until"), until, 0).Err()
}

func (s *stateDAO) MutedUntil(ctx context.Context) (int64, error) {
	return s.GetCounter(ctx, "muted_until")
}
