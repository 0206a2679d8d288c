package render

import (
	"image"
	"math/rand"
	"testing"

	"github.com/ligna159/iPadManualImageMasking/brush"
	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/raster"
)

func noise(w, h int, seed int64) *raster.Buffer {
	rng := rand.New(rand.NewSource(seed))
	b := raster.New(w, h, 4)
	rng.Read(b.Pix)
	return b
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompositeEmptyMaskEqualsSource(t *testing.T) {
	img := noise(12, 9, 1)
	m := mask.New(12, 9)
	for _, opacity := range []float64{0, 0.3, 0.7, 1} {
		out := Composite(img, m, opacity)
		if !equalBytes(out.Pix, img.Pix) {
			t.Errorf("opacity %v: empty mask must leave the source untouched", opacity)
		}
	}
}

func TestCompositeNilMask(t *testing.T) {
	img := noise(4, 4, 2)
	out := Composite(img, nil, 0.7)
	if !equalBytes(out.Pix, img.Pix) {
		t.Error("nil mask should return a copy of the source")
	}
	out.Pix[0]++
	if out.Pix[0] == img.Pix[0] {
		t.Error("composite must not alias the source")
	}
}

func TestCompositeBlend(t *testing.T) {
	img := raster.New(2, 1, 4)
	copy(img.Pix, []uint8{100, 100, 100, 255, 100, 100, 100, 255})
	m := mask.New(2, 1)
	m.Set(0, 0, mask.Foreground)

	tests := []struct {
		opacity float64
		want    [4]uint8
	}{
		{0, [4]uint8{100, 100, 100, 255}},
		{1, [4]uint8{255, 50, 50, 255}},
		{0.5, [4]uint8{178, 75, 75, 255}},
	}
	for _, tt := range tests {
		out := Composite(img, m, tt.opacity)
		var got [4]uint8
		copy(got[:], out.Pix[0:4])
		if got != tt.want {
			t.Errorf("opacity %v: expected %v, got %v", tt.opacity, tt.want, got)
		}
		if !equalBytes(out.Pix[4:8], img.Pix[4:8]) {
			t.Errorf("opacity %v: background pixel was modified", tt.opacity)
		}
	}
}

func TestCompositeThreshold(t *testing.T) {
	img := raster.New(2, 1, 4)
	img.Fill(10)
	m := mask.New(2, 1)
	m.Set(0, 0, 128)
	m.Set(1, 0, 129)
	out := Composite(img, m, 1)
	if !equalBytes(out.Pix[0:4], img.Pix[0:4]) {
		t.Error("value 128 is background")
	}
	if out.Pix[4] != 255 {
		t.Error("value 129 is foreground")
	}
}

func TestCompositeRectMatchesFullRender(t *testing.T) {
	img := noise(40, 30, 3)
	m := mask.New(40, 30)
	dst := Composite(img, m, 0.6)

	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		mode := brush.Draw
		if rng.Intn(3) == 0 {
			mode = brush.Erase
		}
		dirty := brush.ApplyStamp(m, rng.Float64()*50-5, rng.Float64()*40-5, rng.Float64()*6, rng.Float64(), mode)
		CompositeRect(dst, img, m, 0.6, dirty)

		full := Composite(img, m, 0.6)
		if !equalBytes(dst.Pix, full.Pix) {
			t.Fatalf("stamp %d: incremental composite diverged from full render", i)
		}
	}
}

func TestPreview(t *testing.T) {
	m := mask.New(3, 7)
	m.Set(2, 6, mask.Foreground)
	p := Preview(m)
	if p.Width != 3 || p.Height != 7 || p.Channels != 1 {
		t.Fatalf("expected 3x7x1, got %dx%dx%d", p.Width, p.Height, p.Channels)
	}
	if p.At(2, 6, 0) != 255 {
		t.Error("preview should copy mask values")
	}
	p.Set(0, 0, 0, 255)
	if m.At(0, 0) != 0 {
		t.Error("preview must be a copy")
	}
}

func TestScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := Scale(src, 100, 100)
	if got := out.Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("expected 100x50, got %v", got)
	}
	if Scale(src, 1000, 0) != image.Image(src) {
		t.Error("should never upscale")
	}
	gray := image.NewGray(image.Rect(0, 0, 50, 50))
	if _, ok := Scale(gray, 10, 10).(*image.Gray); !ok {
		t.Error("gray input should stay gray")
	}
}
