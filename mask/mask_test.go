package mask

import (
	"errors"
	"image"
	"math/rand"
	"testing"
)

func TestNewMaskIsBackground(t *testing.T) {
	m := New(8, 6)
	if m.Width() != 8 || m.Height() != 6 {
		t.Fatalf("expected 8x6, got %dx%d", m.Width(), m.Height())
	}
	if got := CountForeground(m); got != 0 {
		t.Errorf("expected 0 foreground, got %d", got)
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		v    uint8
		want bool
	}{
		{0, false},
		{128, false},
		{129, true},
		{255, true},
	}
	for _, tt := range tests {
		if got := IsForeground(tt.v); got != tt.want {
			t.Errorf("IsForeground(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestClearCountsZero(t *testing.T) {
	m := New(10, 10)
	m.Fill(Foreground)
	if got := CountForeground(m); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	m.Clear()
	if got := CountForeground(m); got != 0 {
		t.Errorf("expected 0 after clear, got %d", got)
	}
	if m.Foreground() != 0 {
		t.Errorf("incremental count expected 0, got %d", m.Foreground())
	}
}

func TestIncrementalCountMatchesRescan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := New(17, 13)
	values := []uint8{0, 100, 128, 129, 200, 255}
	for i := 0; i < 5000; i++ {
		switch rng.Intn(50) {
		case 0:
			m.Clear()
		case 1:
			m.Fill(values[rng.Intn(len(values))])
		default:
			m.Set(rng.Intn(17), rng.Intn(13), values[rng.Intn(len(values))])
		}
		if m.Foreground() != CountForeground(m) {
			t.Fatalf("step %d: incremental %d != rescan %d", i, m.Foreground(), CountForeground(m))
		}
	}
}

func TestBounds(t *testing.T) {
	m := New(10, 10)
	if !Bounds(m).Empty() {
		t.Error("empty mask should have empty bounds")
	}
	m.Set(2, 3, Foreground)
	m.Set(7, 5, Foreground)
	m.Set(4, 8, 100) // below threshold
	want := image.Rect(2, 3, 8, 6)
	if got := Bounds(m); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCoverage(t *testing.T) {
	m := New(4, 5)
	for x := 0; x < 4; x++ {
		m.Set(x, 0, Foreground)
	}
	if got := Coverage(m); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}
	if Coverage(nil) != 0 {
		t.Error("nil mask coverage should be 0")
	}
}

func TestStoreEnsureIdentity(t *testing.T) {
	s := NewStore(3)
	m1, err := s.Ensure(1, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	m1.Set(1, 1, Foreground)

	m2, err := s.Ensure(1, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Fatal("Ensure must return the same mask on repeat")
	}
	if m2.At(1, 1) != Foreground {
		t.Error("second Ensure must not reset contents")
	}
	if s.Get(1) != m1 {
		t.Error("Get must return the ensured mask")
	}
}

func TestStoreGetNeverCreates(t *testing.T) {
	s := NewStore(2)
	if s.Get(0) != nil {
		t.Error("expected absent slot")
	}
	if s.Present() != 0 {
		t.Errorf("Get created a mask, present=%d", s.Present())
	}
	if s.Get(5) != nil || s.Get(-1) != nil {
		t.Error("out of range Get should be nil")
	}
}

func TestStoreInvalidSlot(t *testing.T) {
	s := NewStore(2)
	for _, slot := range []int{-1, 2, 100} {
		if _, err := s.Ensure(slot, 1, 1); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("slot %d: expected ErrInvalidSlot, got %v", slot, err)
		}
	}
	if s.Present() != 0 || s.Len() != 2 {
		t.Error("invalid ensure must not mutate the store")
	}
}

func TestStoreSizeMismatch(t *testing.T) {
	s := NewStore(1)
	if _, err := s.Ensure(0, 3, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ensure(0, 4, 3); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore(2)
	if s.Clear(0) {
		t.Error("clearing an absent slot should report nothing cleared")
	}
	m, _ := s.Ensure(0, 3, 3)
	m.Fill(Foreground)
	if !s.Clear(0) {
		t.Error("expected clear to report success")
	}
	if CountForeground(s.Get(0)) != 0 {
		t.Error("expected empty mask after clear")
	}
	if s.Get(1) != nil {
		t.Error("clear must not create masks")
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore(2)
	s.Ensure(0, 2, 2)
	s.Ensure(1, 2, 2)
	s.Reset(5)
	if s.Len() != 5 || s.Present() != 0 {
		t.Errorf("expected 5 empty slots, got len=%d present=%d", s.Len(), s.Present())
	}
}

func TestStoreEachAscendingSkipsAbsent(t *testing.T) {
	s := NewStore(4)
	s.Ensure(3, 1, 1)
	s.Ensure(0, 1, 1)
	var slots []int
	s.Each(func(slot int, m *Mask) error {
		slots = append(slots, slot)
		return nil
	})
	if len(slots) != 2 || slots[0] != 0 || slots[1] != 3 {
		t.Errorf("expected [0 3], got %v", slots)
	}
}
