package decode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ligna159/iPadManualImageMasking/raster"
	"golang.org/x/image/tiff"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tiffBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNativeDecode(t *testing.T) {
	buf, err := Native.Decode(pngBytes(t, 6, 4), "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if buf.Width != 6 || buf.Height != 4 || buf.Channels != 4 {
		t.Fatalf("unexpected shape %dx%dx%d", buf.Width, buf.Height, buf.Channels)
	}
	if buf.At(5, 3, 0) != 5 || buf.At(5, 3, 1) != 3 || buf.At(5, 3, 3) != 255 {
		t.Errorf("unexpected pixel %v", buf.Pix[buf.Offset(5, 3):buf.Offset(5, 3)+4])
	}
}

func TestNativeDecodeGarbage(t *testing.T) {
	if _, err := Native.Decode([]byte("not an image"), "x.png"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestRegistryRoutesTIFF(t *testing.T) {
	var used atomic.Int32
	r := NewRegistry()
	r.Register(".TIF", DecoderFunc(func(data []byte, hint string) (*raster.Buffer, error) {
		used.Add(1)
		return TIFF.Decode(data, hint)
	}))
	buf, err := r.Decode(tiffBytes(t, 3, 2), "scan.tif")
	if err != nil {
		t.Fatal(err)
	}
	if buf.Width != 3 || buf.Height != 2 {
		t.Errorf("unexpected size %dx%d", buf.Width, buf.Height)
	}
	if used.Load() != 1 {
		t.Error("expected the .tif backend to be used")
	}
}

func TestRegistryDefaultTIFF(t *testing.T) {
	buf, err := NewRegistry().Decode(tiffBytes(t, 5, 5), "page.TIFF")
	if err != nil {
		t.Fatal(err)
	}
	if buf.Width != 5 {
		t.Errorf("expected width 5, got %d", buf.Width)
	}
}

func TestRegistryFallback(t *testing.T) {
	fallback := DecoderFunc(func(data []byte, hint string) (*raster.Buffer, error) {
		return raster.New(1, 1, 4), nil
	})
	buf, err := NewRegistry(fallback).Decode([]byte("garbage"), "x.jpg")
	if err != nil {
		t.Fatalf("fallback should have succeeded: %v", err)
	}
	if buf.Width != 1 {
		t.Error("expected fallback buffer")
	}

	failing := DecoderFunc(func([]byte, string) (*raster.Buffer, error) {
		return nil, errors.New("opencv failed")
	})
	if _, err := NewRegistry(failing).Decode([]byte("garbage"), "x.jpg"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected joined error to keep ErrUnsupported, got %v", err)
	}
}

func TestLoadBatchPartialFailure(t *testing.T) {
	sources := []Source{
		{Name: "a.png", Data: pngBytes(t, 4, 4)},
		{Name: "b.png", Data: []byte("broken")},
		{Name: "c.tiff", Data: tiffBytes(t, 8, 2)},
	}
	batch, err := LoadBatch(context.Background(), sources, NewRegistry(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Loaded() != 2 || batch.Ratio() != "2/3" {
		t.Fatalf("expected 2/3, got %s", batch.Ratio())
	}
	if batch.Images[0].Name != "a.png" || batch.Images[1].Name != "c.tiff" {
		t.Errorf("order not preserved: %s, %s", batch.Images[0].Name, batch.Images[1].Name)
	}
	if batch.Images[1].Width() != 8 || batch.Images[1].Height() != 2 {
		t.Error("image dimensions lost")
	}
	if len(batch.Failures) != 1 || batch.Failures[0].Index != 1 || batch.Failures[0].Name != "b.png" {
		t.Errorf("unexpected failures %+v", batch.Failures)
	}
	if batch.Images[0].MD5 == "" {
		t.Error("expected content md5")
	}
}

func TestLoadBatchWaitsForAll(t *testing.T) {
	// 逆序完成：先提交的任务最后结束
	delays := []time.Duration{30 * time.Millisecond, 15 * time.Millisecond, 0}
	dec := DecoderFunc(func(data []byte, hint string) (*raster.Buffer, error) {
		time.Sleep(delays[data[0]])
		return raster.New(int(data[0])+1, 1, 4), nil
	})
	sources := []Source{{"0", []byte{0}}, {"1", []byte{1}}, {"2", []byte{2}}}
	batch, err := LoadBatch(context.Background(), sources, dec, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, img := range batch.Images {
		if img.Width() != i+1 {
			t.Errorf("slot %d holds image %q", i, img.Name)
		}
	}
}

func TestLoadBatchAllFail(t *testing.T) {
	sources := []Source{{"a", []byte("x")}, {"b", []byte("y")}}
	batch, err := LoadBatch(context.Background(), sources, NewRegistry(), 1)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if len(batch.Failures) != 2 || batch.Ratio() != "0/2" {
		t.Errorf("unexpected batch %+v", batch)
	}
}

func TestLoadBatchNoSources(t *testing.T) {
	if _, err := LoadBatch(context.Background(), nil, NewRegistry(), 1); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestLoadBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sources := []Source{{"a.png", pngBytes(t, 2, 2)}}
	if _, err := LoadBatch(ctx, sources, NewRegistry(), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
