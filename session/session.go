// Package session 持有一次标注会话的全部可变状态：图像序列、掩码、画笔与当前槽位。
//
// Session 不是并发安全的，调用方（事件层）需保证同一时刻只有一个操作在修改它。
package session

import (
	"errors"
	"fmt"
	"image"

	"github.com/ligna159/iPadManualImageMasking/brush"
	"github.com/ligna159/iPadManualImageMasking/decode"
	"github.com/ligna159/iPadManualImageMasking/mask"
	"github.com/ligna159/iPadManualImageMasking/raster"
	"github.com/ligna159/iPadManualImageMasking/render"
)

var (
	ErrNoImages   = errors.New("no images loaded")
	ErrFirstImage = errors.New("this is the first image")
	ErrLastImage  = errors.New("this is the last image")
)

type Session struct {
	images  []decode.Image
	store   *mask.Store
	brush   brush.State
	current int
	drawing bool

	// display 当前槽位的合成结果，随笔触按脏矩形增量更新
	display *raster.Buffer
}

func New(b brush.State) (*Session, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Session{store: mask.NewStore(0), brush: b}, nil
}

// Load 用新的图像集替换全部状态，并激活第一张图像
func (s *Session) Load(images []decode.Image) error {
	s.images = images
	s.store.Reset(len(images))
	s.current = 0
	s.drawing = false
	s.display = nil
	if len(images) == 0 {
		return ErrNoImages
	}
	return s.activate(0)
}

func (s *Session) activate(slot int) error {
	img := s.images[slot]
	if _, err := s.store.Ensure(slot, img.Width(), img.Height()); err != nil {
		return err
	}
	s.current = slot
	s.drawing = false
	s.display = nil
	return nil
}

func (s *Session) Len() int               { return len(s.images) }
func (s *Session) Current() int           { return s.current }
func (s *Session) Store() *mask.Store     { return s.store }
func (s *Session) Brush() brush.State     { return s.brush }
func (s *Session) Drawing() bool          { return s.drawing }
func (s *Session) Images() []decode.Image { return s.images }

// Progress 形如 "3 / 10" 的进度文本
func (s *Session) Progress() string {
	if len(s.images) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", s.current+1, len(s.images))
}

// ActiveImage 当前图像
func (s *Session) ActiveImage() (decode.Image, error) {
	if len(s.images) == 0 {
		return decode.Image{}, ErrNoImages
	}
	return s.images[s.current], nil
}

// ActiveMask 当前掩码，可能为 nil
func (s *Session) ActiveMask() *mask.Mask {
	return s.store.Get(s.current)
}

// SetBrush 更新画笔配置，非法配置不生效
func (s *Session) SetBrush(b brush.State) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Opacity != s.brush.Opacity {
		s.display = nil
	}
	s.brush = b
	return nil
}

// Navigate 按方向切换槽位，越过首尾时保持不变并返回 ErrFirstImage / ErrLastImage
func (s *Session) Navigate(direction int) error {
	if len(s.images) == 0 {
		return ErrNoImages
	}
	next := s.current + direction
	switch {
	case next >= len(s.images):
		return ErrLastImage
	case next < 0:
		return ErrFirstImage
	}
	return s.activate(next)
}

// GoTo 直接跳转到指定槽位
func (s *Session) GoTo(slot int) error {
	if len(s.images) == 0 {
		return ErrNoImages
	}
	if slot < 0 || slot >= len(s.images) {
		return fmt.Errorf("go to slot %d of %d: %w", slot, len(s.images), mask.ErrInvalidSlot)
	}
	return s.activate(slot)
}

// StartStroke 按下笔尖，立即落下第一个笔触
func (s *Session) StartStroke(x, y, pressure float64) (image.Rectangle, error) {
	if len(s.images) == 0 {
		return image.Rectangle{}, ErrNoImages
	}
	s.drawing = true
	return s.stamp(x, y, pressure)
}

// ContinueStroke 笔尖移动；未处于绘制状态时忽略。相邻采样点之间不做插值。
func (s *Session) ContinueStroke(x, y, pressure float64) (image.Rectangle, error) {
	if !s.drawing {
		return image.Rectangle{}, nil
	}
	return s.stamp(x, y, pressure)
}

// EndStroke 抬起笔尖
func (s *Session) EndStroke() {
	s.drawing = false
}

func (s *Session) stamp(x, y, pressure float64) (image.Rectangle, error) {
	img := s.images[s.current]
	m, err := s.store.Ensure(s.current, img.Width(), img.Height())
	if err != nil {
		return image.Rectangle{}, err
	}
	dirty := brush.ApplyStamp(m, x, y, s.brush.Radius, pressure, s.brush.Mode)
	if s.display != nil {
		render.CompositeRect(s.display, img.Pixels, m, s.brush.Opacity, dirty)
	}
	return dirty, nil
}

// Clear 清空当前掩码，无掩码时返回 false
func (s *Session) Clear() bool {
	if !s.store.Clear(s.current) {
		return false
	}
	s.display = nil
	return true
}

// Composite 当前图像与掩码的合成结果；返回的缓冲区归会话所有，调用方不得修改
func (s *Session) Composite() (*raster.Buffer, error) {
	img, err := s.ActiveImage()
	if err != nil {
		return nil, err
	}
	if s.display == nil {
		s.display = render.Composite(img.Pixels, s.ActiveMask(), s.brush.Opacity)
	}
	return s.display, nil
}

// Preview 当前掩码的预览，无掩码时返回 nil
func (s *Session) Preview() *raster.Buffer {
	m := s.ActiveMask()
	if m == nil {
		return nil
	}
	return render.Preview(m)
}

// PixelCount 当前掩码的前景像素数
func (s *Session) PixelCount() int {
	m := s.ActiveMask()
	if m == nil {
		return 0
	}
	return m.Foreground()
}
