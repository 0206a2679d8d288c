package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ligna159/iPadManualImageMasking/config"
	"github.com/ligna159/iPadManualImageMasking/model"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetMask 获取归档的掩码PNG，未命中时返回 nil, nil
func (s *RedisService) GetMask(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, "mask:"+name).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}
	return data, nil
}

// SetMask 归档掩码PNG
func (s *RedisService) SetMask(ctx context.Context, name string, data []byte) error {
	return s.client.Set(ctx, "mask:"+name, data, s.ttl).Err()
}

// GetExportReport 获取会话最近一次导出结果
func (s *RedisService) GetExportReport(ctx context.Context, sessionID string) (*model.ExportReport, error) {
	key := "export:" + sessionID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var report model.ExportReport
	if err := json.Unmarshal(data, &report); err != nil {
		utils.Logger.Error("failed to unmarshal export report",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	return &report, nil
}

// SetExportReport 保存导出结果
func (s *RedisService) SetExportReport(ctx context.Context, report *model.ExportReport) error {
	key := "export:" + report.SessionID
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// RedisSink 将导出的掩码写入 Redis 归档
type RedisSink struct {
	redis *RedisService
}

func NewRedisSink(r *RedisService) *RedisSink {
	return &RedisSink{redis: r}
}

func (s *RedisSink) Emit(ctx context.Context, name string, data []byte) error {
	return s.redis.SetMask(ctx, name, data)
}
