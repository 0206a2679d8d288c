package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ligna159/iPadManualImageMasking/config"
	"github.com/ligna159/iPadManualImageMasking/export"
	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/model"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

// ExportService 按配置组合导出目标
type ExportService struct {
	sinks []export.Sink
	redis *RedisService
}

// NewExportService redis 为 nil 时忽略 redis 目标与导出记录
func NewExportService(cfg *config.ExportConfig, redis *RedisService) (*ExportService, error) {
	s := &ExportService{redis: redis}
	for _, name := range cfg.Sinks {
		switch name {
		case "dir":
			s.sinks = append(s.sinks, export.DirSink{Dir: cfg.Dir})
		case "s3":
			sink, err := export.NewS3Sink(&cfg.S3)
			if err != nil {
				return nil, fmt.Errorf("failed to create s3 sink: %w", err)
			}
			s.sinks = append(s.sinks, sink)
		case "redis":
			if redis == nil {
				utils.Logger.Warn("redis export sink configured but redis is unavailable")
				continue
			}
			s.sinks = append(s.sinks, NewRedisSink(redis))
		default:
			return nil, fmt.Errorf("unknown export sink %q", name)
		}
	}
	if len(s.sinks) == 0 {
		return nil, fmt.Errorf("no export sink configured")
	}
	return s, nil
}

// Export 导出会话的全部掩码，文件按会话ID分组
func (s *ExportService) Export(ctx context.Context, sessionID string, store *mask.Store) (*model.ExportReport, error) {
	sink := export.PrefixSink(sessionID, export.MultiSink(s.sinks))
	report, err := export.NewExporter().ExportAll(ctx, store, sink)
	result := toExportReport(sessionID, report)

	if s.redis != nil {
		if err := s.redis.SetExportReport(ctx, result); err != nil {
			utils.Logger.Warn("failed to save export report", zap.Error(err))
		}
	}
	return result, err
}

// WriteZip 将全部掩码打包写入 w
func (s *ExportService) WriteZip(ctx context.Context, w io.Writer, sessionID string, store *mask.Store) (*model.ExportReport, error) {
	zs := export.NewZipSink(w)
	report, err := export.NewExporter().ExportAll(ctx, store, zs)
	if cerr := zs.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return toExportReport(sessionID, report), err
}

// LastReport 最近一次导出结果，无 redis 时返回 nil
func (s *ExportService) LastReport(ctx context.Context, sessionID string) (*model.ExportReport, error) {
	if s.redis == nil {
		return nil, nil
	}
	return s.redis.GetExportReport(ctx, sessionID)
}

func toExportReport(sessionID string, r export.Report) *model.ExportReport {
	files := r.Files
	if files == nil {
		files = []string{}
	}
	return &model.ExportReport{
		SessionID: sessionID,
		Emitted:   r.Emitted,
		Files:     files,
		Failed:    r.Failed,
		Timestamp: time.Now().Unix(),
	}
}
