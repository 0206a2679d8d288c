package raster

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Buffer 固定尺寸的像素网格，按行优先存储，每个像素 Channels 个字节
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New 创建全零缓冲区
func New(width, height, channels int) *Buffer {
	if width < 0 || height < 0 || channels <= 0 {
		panic(fmt.Sprintf("raster: invalid buffer shape %dx%dx%d", width, height, channels))
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// In 判断坐标是否落在缓冲区内，写入方必须在访问前调用
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Offset 返回 (x, y) 第一个通道在 Pix 中的下标，不做边界检查
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// At 读取 (x, y) 的第 c 个通道
func (b *Buffer) At(x, y, c int) uint8 {
	b.check(x, y, c)
	return b.Pix[b.Offset(x, y)+c]
}

// Set 写入 (x, y) 的第 c 个通道
func (b *Buffer) Set(x, y, c int, v uint8) {
	b.check(x, y, c)
	b.Pix[b.Offset(x, y)+c] = v
}

// 越界访问属于调用方错误，不做截断
func (b *Buffer) check(x, y, c int) {
	if !b.In(x, y) || c < 0 || c >= b.Channels {
		panic(fmt.Sprintf("raster: access (%d,%d,%d) outside %dx%dx%d", x, y, c, b.Width, b.Height, b.Channels))
	}
}

// Fill 所有字节填充为 v
func (b *Buffer) Fill(v uint8) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

// Bytes 返回按行优先排列的连续字节副本
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.Pix))
	copy(out, b.Pix)
	return out
}

func (b *Buffer) Clone() *Buffer {
	c := *b
	c.Pix = b.Bytes()
	return &c
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// RGBA 以 *image.RGBA 视图暴露 4 通道缓冲区，共享底层像素
func (b *Buffer) RGBA() *image.RGBA {
	if b.Channels != 4 {
		panic("raster: RGBA view requires 4 channels")
	}
	return &image.RGBA{Pix: b.Pix, Stride: b.Width * 4, Rect: b.Bounds()}
}

// Gray 以 *image.Gray 视图暴露单通道缓冲区，共享底层像素
func (b *Buffer) Gray() *image.Gray {
	if b.Channels != 1 {
		panic("raster: Gray view requires 1 channel")
	}
	return &image.Gray{Pix: b.Pix, Stride: b.Width, Rect: b.Bounds()}
}

// Image 返回与通道数匹配的 image.Image 视图
func (b *Buffer) Image() image.Image {
	if b.Channels == 1 {
		return b.Gray()
	}
	return b.RGBA()
}

// FromImage 将任意 image.Image 转换为 4 通道 RGBA 缓冲区，原点平移到 (0,0)
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	buf := New(bounds.Dx(), bounds.Dy(), 4)
	if src, ok := img.(*image.RGBA); ok && src.Stride == bounds.Dx()*4 {
		copy(buf.Pix, src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):])
		return buf
	}
	xdraw.Draw(buf.RGBA(), buf.Bounds(), img, bounds.Min, xdraw.Src)
	return buf
}
