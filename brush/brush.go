package brush

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ligna159/iPadManualImageMasking/mask"
)

// 超过该半径时浮点偏移不再精确
const maxRadius = 1 << 50

// Mode 画笔模式
type Mode int

const (
	Draw Mode = iota
	Erase
)

func (m Mode) String() string {
	if m == Erase {
		return "erase"
	}
	return "draw"
}

// ParseMode 解析 "draw" / "erase"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draw", "":
		return Draw, nil
	case "erase":
		return Erase, nil
	}
	return Draw, fmt.Errorf("unknown brush mode %q", s)
}

func (m Mode) value() uint8 {
	if m == Erase {
		return mask.Background
	}
	return mask.Foreground
}

// State 画笔配置，不属于任何掩码
type State struct {
	Radius  float64
	Mode    Mode
	Opacity float64
}

// Validate 检查半径为正、不透明度在 [0,1] 内
func (s State) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("brush radius must be positive, got %v", s.Radius)
	}
	if !(s.Opacity >= 0 && s.Opacity <= 1) {
		return fmt.Errorf("opacity must be within [0,1], got %v", s.Opacity)
	}
	return nil
}

// NormalizePressure 设备未报告压力（<=0 或 NaN）时视为 1，超过 1 截断为 1
func NormalizePressure(p float64) float64 {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return 1
	}
	return p
}

// EffectiveRadius 半径随压力的平方根变化，轻触仍有较大笔触
func EffectiveRadius(base, pressure float64) float64 {
	return base * math.Sqrt(NormalizePressure(pressure))
}

// ApplyStamp 在掩码上落一个硬边圆形笔触，返回被写入的脏矩形
//
// 以 (cx, cy) 为圆心，对 [-r, r] 内整数步进的偏移量，距离不超过 r 的偏移
// 四舍五入到最近的像素后写入；落在掩码外的像素直接跳过。
func ApplyStamp(m *mask.Mask, cx, cy, base, pressure float64, mode Mode) image.Rectangle {
	r := min(EffectiveRadius(base, pressure), maxRadius)
	if m == nil || !(r >= 0) || math.IsInf(r, 0) || math.IsNaN(cx) || math.IsNaN(cy) {
		return image.Rectangle{}
	}

	w, h := m.Width(), m.Height()
	// 笔触整体落在掩码外时无需逐点扫描
	if cx+r < -0.5 || cy+r < -0.5 || cx-r >= float64(w)-0.5 || cy-r >= float64(h)-0.5 {
		return image.Rectangle{}
	}

	v := mode.value()
	steps := int(math.Floor(2 * r))
	// 只扫描四舍五入后可能落在掩码内的偏移区间
	kx0, kx1 := stepRange(cx, r, w, steps)
	ky0, ky1 := stepRange(cy, r, h, steps)

	minX, minY, maxX, maxY := w, h, -1, -1
	for ky := ky0; ky <= ky1; ky++ {
		dy := -r + float64(ky)
		py := int(math.Round(cy + dy))
		if py < 0 || py >= h {
			continue
		}
		for kx := kx0; kx <= kx1; kx++ {
			dx := -r + float64(kx)
			if math.Sqrt(dx*dx+dy*dy) > r {
				continue
			}
			px := int(math.Round(cx + dx))
			if px < 0 || px >= w {
				continue
			}
			m.Set(px, py, v)
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, py), max(maxY, py)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// stepRange 返回偏移步数 k（偏移 = -r + k）中可能命中 [0, size) 的范围
func stepRange(c, r float64, size, steps int) (int, int) {
	lo := int(math.Floor(-0.5 - c + r))
	hi := int(math.Ceil(float64(size) - 0.5 - c + r))
	return max(lo, 0), min(hi, steps)
}
