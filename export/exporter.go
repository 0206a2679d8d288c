package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
)

// Sink 接收编码后的掩码文件，不关心落盘或下载细节
type Sink interface {
	Emit(ctx context.Context, name string, data []byte) error
}

// SinkFunc 函数适配为 Sink
type SinkFunc func(ctx context.Context, name string, data []byte) error

func (f SinkFunc) Emit(ctx context.Context, name string, data []byte) error {
	return f(ctx, name, data)
}

// Report 导出结果
type Report struct {
	Emitted int
	Files   []string
	Failed  []string
}

// Filename 1 起始、5 位补零的掩码文件名
func Filename(slot int) string {
	return fmt.Sprintf("mask_%05d.png", slot+1)
}

// Exporter 将掩码编码为 8 位灰度 PNG
type Exporter struct {
	encoder png.Encoder
	buffer  bytes.Buffer
}

func NewExporter() *Exporter {
	return &Exporter{encoder: png.Encoder{CompressionLevel: png.BestSpeed}}
}

// Encode 编码单个掩码，前景 255、背景 0，尺寸与掩码一致
func (e *Exporter) Encode(m *mask.Mask) ([]byte, error) {
	e.buffer.Reset()
	if err := e.encoder.Encode(&e.buffer, m.Buffer().Gray()); err != nil {
		return nil, err
	}
	out := make([]byte, e.buffer.Len())
	copy(out, e.buffer.Bytes())
	return out, nil
}

// ExportAll 按槽位升序导出所有已创建的掩码，空槽位跳过
//
// 单个文件写入失败不会中断其余文件，所有失败合并后随报告一起返回。
func (e *Exporter) ExportAll(ctx context.Context, store *mask.Store, sink Sink) (Report, error) {
	var report Report
	var errs []error
	_ = store.Each(func(slot int, m *mask.Mask) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := Filename(slot)
		data, err := e.Encode(m)
		if err == nil {
			err = sink.Emit(ctx, name, data)
		}
		if err != nil {
			utils.Logger.Warn("failed to export mask",
				zap.Int("slot", slot),
				zap.String("file", name),
				zap.Error(err))
			report.Failed = append(report.Failed, name)
			errs = append(errs, fmt.Errorf("export %s: %w", name, err))
			return nil
		}
		report.Emitted++
		report.Files = append(report.Files, name)
		return nil
	})
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	utils.Logger.Info("masks exported",
		zap.Int("emitted", report.Emitted),
		zap.Int("failed", len(report.Failed)),
		zap.Int("slots", store.Len()))

	return report, errors.Join(errs...)
}
