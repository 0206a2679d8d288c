package mask

import (
	"github.com/ligna159/iPadManualImageMasking/raster"
)

const (
	// Background 背景值
	Background uint8 = 0
	// Foreground 前景值
	Foreground uint8 = 255
	// Threshold 所有读取掩码的操作都以 > Threshold 判定前景
	Threshold uint8 = 128
)

// IsForeground 判断采样值是否为前景
func IsForeground(v uint8) bool {
	return v > Threshold
}

// Mask 与源图像逐像素对齐的二值掩码
type Mask struct {
	buf        *raster.Buffer
	foreground int
}

// New 创建全背景掩码
func New(width, height int) *Mask {
	return &Mask{buf: raster.New(width, height, 1)}
}

func (m *Mask) Width() int  { return m.buf.Width }
func (m *Mask) Height() int { return m.buf.Height }

// Buffer 返回底层单通道缓冲区，只读使用
func (m *Mask) Buffer() *raster.Buffer { return m.buf }

// In 判断坐标是否在掩码内
func (m *Mask) In(x, y int) bool { return m.buf.In(x, y) }

// At 读取 (x, y) 的采样值，坐标必须在掩码内
func (m *Mask) At(x, y int) uint8 {
	return m.buf.At(x, y, 0)
}

// Set 写入 (x, y)，同步维护前景计数
func (m *Mask) Set(x, y int, v uint8) {
	old := m.buf.At(x, y, 0)
	if old == v {
		return
	}
	m.buf.Pix[m.buf.Offset(x, y)] = v
	switch {
	case IsForeground(v) && !IsForeground(old):
		m.foreground++
	case !IsForeground(v) && IsForeground(old):
		m.foreground--
	}
}

// Fill 整体填充
func (m *Mask) Fill(v uint8) {
	m.buf.Fill(v)
	if IsForeground(v) {
		m.foreground = len(m.buf.Pix)
	} else {
		m.foreground = 0
	}
}

// Clear 重置为全背景
func (m *Mask) Clear() {
	m.Fill(Background)
}

// Foreground 返回增量维护的前景像素数，与 CountForeground 的全量结果一致
func (m *Mask) Foreground() int {
	return m.foreground
}
