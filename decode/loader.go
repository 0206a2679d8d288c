package decode

import (
	"context"
	"errors"
	"fmt"

	"github.com/ligna159/iPadManualImageMasking/raster"
	"github.com/ligna159/iPadManualImageMasking/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSources  = errors.New("no files selected")
	ErrEmptyBatch = errors.New("no image in the batch could be decoded")
)

// Source 待解码的文件
type Source struct {
	Name string
	Data []byte
}

// Image 解码完成的源图像，加载后不可变
type Image struct {
	Name   string
	MD5    string
	Pixels *raster.Buffer
}

func (img Image) Width() int  { return img.Pixels.Width }
func (img Image) Height() int { return img.Pixels.Height }

// Failure 单个文件的解码失败
type Failure struct {
	Index int
	Name  string
	Err   error
}

// Batch 一次加载的完整结果：成功的图像按原顺序排列，失败项已剔除
type Batch struct {
	Images    []Image
	Failures  []Failure
	Requested int
}

func (b *Batch) Loaded() int { return len(b.Images) }

// Ratio 形如 "2/3" 的成功比例
func (b *Batch) Ratio() string {
	return fmt.Sprintf("%d/%d", b.Loaded(), b.Requested)
}

type result struct {
	img Image
	err error
}

// LoadBatch 并发解码全部文件，等待所有任务结束后一次性返回
//
// 单个文件失败不影响其余文件；全部失败时返回 ErrEmptyBatch，同时返回失败明细。
func LoadBatch(ctx context.Context, sources []Source, dec Decoder, limit int) (*Batch, error) {
	batch := &Batch{Requested: len(sources)}
	if len(sources) == 0 {
		return batch, ErrNoSources
	}

	results := make([]result, len(sources))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			utils.Logger.Debug("decoding image",
				zap.Int("index", i),
				zap.String("file", src.Name),
				zap.Int("size", len(src.Data)))

			buf, err := dec.Decode(src.Data, src.Name)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].img = Image{Name: src.Name, MD5: utils.BytesMD5(src.Data), Pixels: buf}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.err != nil {
			utils.Logger.Warn("failed to decode image",
				zap.String("file", sources[i].Name),
				zap.Error(r.err))
			batch.Failures = append(batch.Failures, Failure{Index: i, Name: sources[i].Name, Err: r.err})
			continue
		}
		batch.Images = append(batch.Images, r.img)
	}

	if err := ctx.Err(); err != nil {
		return batch, err
	}

	if batch.Loaded() == 0 {
		return batch, ErrEmptyBatch
	}
	return batch, nil
}
