package mask

import (
	"image"
)

// CountForeground 全量扫描统计前景像素数
func CountForeground(m *Mask) int {
	if m == nil {
		return 0
	}
	count := 0
	for _, v := range m.buf.Pix {
		if IsForeground(v) {
			count++
		}
	}
	return count
}

// Bounds 计算前景像素的最小外接矩形，无前景时返回空矩形
func Bounds(m *Mask) image.Rectangle {
	if m == nil {
		return image.Rectangle{}
	}
	w, h := m.Width(), m.Height()
	var r image.Rectangle
	found := false
	for y := 0; y < h; y++ {
		row := m.buf.Pix[y*w : (y+1)*w]
		for x, v := range row {
			if !IsForeground(v) {
				continue
			}
			if !found {
				r = image.Rect(x, y, x+1, y+1)
				found = true
				continue
			}
			if x < r.Min.X {
				r.Min.X = x
			}
			if x+1 > r.Max.X {
				r.Max.X = x + 1
			}
			r.Max.Y = y + 1
		}
	}
	return r
}

// Coverage 前景占比
func Coverage(m *Mask) float64 {
	if m == nil || len(m.buf.Pix) == 0 {
		return 0
	}
	return float64(m.Foreground()) / float64(len(m.buf.Pix))
}
