package mask

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSlot  = errors.New("slot out of range")
	ErrSizeMismatch = errors.New("mask size does not match image")
)

// Store 每个图像槽位对应一个按需创建的掩码
type Store struct {
	masks []*Mask
}

func NewStore(n int) *Store {
	s := &Store{}
	s.Reset(n)
	return s
}

// Reset 丢弃全部掩码，重新分配 n 个空槽位
func (s *Store) Reset(n int) {
	if n < 0 {
		n = 0
	}
	s.masks = make([]*Mask, n)
}

func (s *Store) Len() int { return len(s.masks) }

func (s *Store) valid(slot int) bool {
	return slot >= 0 && slot < len(s.masks)
}

// Ensure 返回槽位上的掩码，不存在时创建全背景掩码；重复调用返回同一对象且不重置内容
func (s *Store) Ensure(slot, width, height int) (*Mask, error) {
	if !s.valid(slot) {
		return nil, fmt.Errorf("ensure slot %d of %d: %w", slot, len(s.masks), ErrInvalidSlot)
	}
	if m := s.masks[slot]; m != nil {
		if m.Width() != width || m.Height() != height {
			return nil, fmt.Errorf("ensure slot %d: have %dx%d, want %dx%d: %w",
				slot, m.Width(), m.Height(), width, height, ErrSizeMismatch)
		}
		return m, nil
	}
	m := New(width, height)
	s.masks[slot] = m
	return m, nil
}

// Get 返回槽位上的掩码，不存在或越界时返回 nil，从不创建
func (s *Store) Get(slot int) *Mask {
	if !s.valid(slot) {
		return nil
	}
	return s.masks[slot]
}

// Clear 将槽位上的掩码重置为全背景，无掩码时返回 false
func (s *Store) Clear(slot int) bool {
	m := s.Get(slot)
	if m == nil {
		return false
	}
	m.Clear()
	return true
}

// Present 已创建的掩码数量
func (s *Store) Present() int {
	n := 0
	for _, m := range s.masks {
		if m != nil {
			n++
		}
	}
	return n
}

// Each 按槽位升序遍历已创建的掩码
func (s *Store) Each(fn func(slot int, m *Mask) error) error {
	for i, m := range s.masks {
		if m == nil {
			continue
		}
		if err := fn(i, m); err != nil {
			return err
		}
	}
	return nil
}
