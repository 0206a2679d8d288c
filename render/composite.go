package render

import (
	"image"
	"image/color"
	"math"

	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/raster"
)

// Highlight 前景叠加色
var Highlight = color.RGBA{R: 255, G: 50, B: 50, A: 255}

// Composite 生成源图像叠加掩码后的显示缓冲区
//
// 前景像素（> 128）的 RGB 以 opacity 为系数向高亮色混合，alpha 保持不变；
// 背景像素原样保留，不受 opacity 影响。mask 为 nil 时返回源图像副本。
func Composite(img *raster.Buffer, m *mask.Mask, opacity float64) *raster.Buffer {
	dst := img.Clone()
	if m == nil {
		return dst
	}
	CompositeRect(dst, img, m, opacity, img.Bounds())
	return dst
}

// CompositeRect 仅重绘 r 区域，dst 其余部分保持不变
//
// dst 必须与 img 同尺寸，且此前由 Composite 生成；笔触返回的脏矩形传入此处即可增量刷新。
func CompositeRect(dst, img *raster.Buffer, m *mask.Mask, opacity float64, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	a := clamp01(opacity)
	var lut [3][256]uint8
	hl := [3]uint8{Highlight.R, Highlight.G, Highlight.B}
	for c := 0; c < 3; c++ {
		for v := 0; v < 256; v++ {
			lut[c][v] = blend(uint8(v), hl[c], a)
		}
	}

	mb := m.Buffer()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.Offset(x, y)
			if !mask.IsForeground(mb.Pix[mb.Offset(x, y)]) {
				copy(dst.Pix[i:i+4], img.Pix[i:i+4])
				continue
			}
			dst.Pix[i] = lut[0][img.Pix[i]]
			dst.Pix[i+1] = lut[1][img.Pix[i+1]]
			dst.Pix[i+2] = lut[2][img.Pix[i+2]]
			dst.Pix[i+3] = img.Pix[i+3]
		}
	}
}

func blend(src, hl uint8, a float64) uint8 {
	return uint8(math.Round(float64(src)*(1-a) + float64(hl)*a))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Preview 掩码本身的预览，按掩码自身尺寸输出
func Preview(m *mask.Mask) *raster.Buffer {
	return m.Buffer().Clone()
}
