package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := New(4, 3, 4)
	if len(b.Pix) != 4*3*4 {
		t.Fatalf("expected %d bytes, got %d", 48, len(b.Pix))
	}
	for i, v := range b.Pix {
		if v != 0 {
			t.Fatalf("byte %d: expected 0, got %d", i, v)
		}
	}
}

func TestBufferSetAt(t *testing.T) {
	b := New(5, 5, 4)
	b.Set(2, 3, 1, 77)
	if got := b.At(2, 3, 1); got != 77 {
		t.Errorf("expected 77, got %d", got)
	}
	if got := b.Pix[(3*5+2)*4+1]; got != 77 {
		t.Errorf("row-major layout: expected 77, got %d", got)
	}
}

func TestBufferOutOfRangePanics(t *testing.T) {
	tests := []struct {
		name    string
		x, y, c int
	}{
		{"negative x", -1, 0, 0},
		{"x == width", 3, 0, 0},
		{"y == height", 0, 2, 0},
		{"channel", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(3, 2, 1)
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for (%d,%d,%d)", tt.x, tt.y, tt.c)
				}
			}()
			b.Set(tt.x, tt.y, tt.c, 1)
		})
	}
}

func TestBufferIn(t *testing.T) {
	b := New(3, 2, 1)
	if !b.In(0, 0) || !b.In(2, 1) {
		t.Error("corners should be inside")
	}
	if b.In(3, 0) || b.In(0, 2) || b.In(-1, 0) {
		t.Error("outside coordinates reported inside")
	}
}

func TestBufferFillAndBytes(t *testing.T) {
	b := New(2, 2, 1)
	b.Fill(9)
	out := b.Bytes()
	for i, v := range out {
		if v != 9 {
			t.Fatalf("byte %d: expected 9, got %d", i, v)
		}
	}
	out[0] = 0
	if b.Pix[0] != 9 {
		t.Error("Bytes must return a copy")
	}
}

func TestBufferViews(t *testing.T) {
	rgba := New(2, 2, 4)
	rgba.RGBA().Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	if rgba.At(1, 1, 2) != 30 {
		t.Errorf("RGBA view must share pixels, got %d", rgba.At(1, 1, 2))
	}

	gray := New(2, 2, 1)
	gray.Gray().SetGray(0, 1, color.Gray{Y: 200})
	if gray.At(0, 1, 0) != 200 {
		t.Errorf("Gray view must share pixels, got %d", gray.At(0, 1, 0))
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	src.Set(11, 11, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	b := FromImage(src)
	if b.Width != 3 || b.Height != 2 || b.Channels != 4 {
		t.Fatalf("expected 3x2x4, got %dx%dx%d", b.Width, b.Height, b.Channels)
	}
	if b.At(1, 1, 0) != 255 || b.At(1, 1, 3) != 255 {
		t.Errorf("expected opaque red at (1,1), got %v", b.Pix[b.Offset(1, 1):b.Offset(1, 1)+4])
	}
}
