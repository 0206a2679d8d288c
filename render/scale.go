package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Scale 按比例缩小到不超过 maxW×maxH，从不放大；maxW/maxH <= 0 表示该方向不限制
func Scale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	scale := 1.0
	if maxW > 0 {
		scale = min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1 {
		return src
	}

	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	if _, ok := src.(*image.Gray); ok {
		// 掩码缩放使用最近邻，保持二值
		g := image.NewGray(image.Rect(0, 0, nw, nh))
		xdraw.NearestNeighbor.Scale(g, g.Bounds(), src, b, xdraw.Src, nil)
		return g
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
