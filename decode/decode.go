package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/ligna159/iPadManualImageMasking/raster"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupported = errors.New("unsupported image data")
	ErrEmptyImage  = errors.New("image has no pixels")
)

// Decoder 将文件字节解码为 RGBA 缓冲区，hint 通常是文件名
type Decoder interface {
	Decode(data []byte, hint string) (*raster.Buffer, error)
}

// DecoderFunc 函数适配为 Decoder
type DecoderFunc func(data []byte, hint string) (*raster.Buffer, error)

func (f DecoderFunc) Decode(data []byte, hint string) (*raster.Buffer, error) {
	return f(data, hint)
}

// Native 通过 image.Decode 解码 png/jpeg/gif/bmp/webp/tiff
var Native Decoder = DecoderFunc(func(data []byte, _ string) (*raster.Buffer, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return nil, err
	}
	return toBuffer(img, format)
})

// TIFF 专用的 TIFF 解码，只取第一页
var TIFF Decoder = DecoderFunc(func(data []byte, _ string) (*raster.Buffer, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tiff: %w", err)
	}
	return toBuffer(img, "tiff")
})

func toBuffer(img image.Image, format string) (*raster.Buffer, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: %w", format, ErrEmptyImage)
	}
	return raster.FromImage(img), nil
}

// Registry 按扩展名选择解码后端，失败时依次尝试兜底后端
type Registry struct {
	byExt     map[string]Decoder
	fallbacks []Decoder
}

func NewRegistry(fallbacks ...Decoder) *Registry {
	return &Registry{
		byExt: map[string]Decoder{
			".tif":  TIFF,
			".tiff": TIFF,
		},
		fallbacks: fallbacks,
	}
}

// Register 为扩展名（含点）注册后端
func (r *Registry) Register(ext string, d Decoder) {
	r.byExt[strings.ToLower(ext)] = d
}

func (r *Registry) Decode(data []byte, hint string) (*raster.Buffer, error) {
	d, ok := r.byExt[strings.ToLower(filepath.Ext(hint))]
	if !ok {
		d = Native
	}
	buf, err := d.Decode(data, hint)
	if err == nil {
		return buf, nil
	}
	errs := []error{err}
	for _, fb := range r.fallbacks {
		buf, ferr := fb.Decode(data, hint)
		if ferr == nil {
			return buf, nil
		}
		errs = append(errs, ferr)
	}
	return nil, errors.Join(errs...)
}
