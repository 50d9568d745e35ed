package marquee

import (
	"errors"
	"testing"

	"github.com/DrJosh9000/marquee/glyph"
)

// recordSink counts glyph writes and keeps the last pattern per slot.
type recordSink struct {
	writes int
	slots  [Slots]glyph.Bitmap
}

func (s *recordSink) WriteGlyph(slot int, bm glyph.Bitmap) error {
	s.writes++
	s.slots[slot] = bm
	return nil
}

// testPattern returns a distinct non-blank bitmap per index (0 to 31).
func testPattern(i int) glyph.Bitmap {
	return glyph.New([8]uint8{0b10000, uint8(i), 0, 0, 0, 0, 0, 0b00001})
}

func TestResolveIdempotent(t *testing.T) {
	sink := &recordSink{}
	a := NewAllocator(sink)

	bm := testPattern(1)
	slot, err := a.Resolve(bm)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	again, err := a.Resolve(bm)
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if again != slot {
		t.Errorf("repeat Resolve moved the glyph: slot %d then %d", slot, again)
	}
	if sink.writes != 1 {
		t.Errorf("glyph writes = %d, want 1", sink.writes)
	}
}

func TestBindFillsFreeSlotsFirst(t *testing.T) {
	sink := &recordSink{}
	a := NewAllocator(sink)

	seen := map[int]bool{}
	for i := 0; i < Slots; i++ {
		a.BeginFrame()
		slot, err := a.Resolve(testPattern(i))
		if err != nil {
			t.Fatalf("Resolve(%d): %v", i, err)
		}
		if seen[slot] {
			t.Fatalf("slot %d bound twice before the cache filled", slot)
		}
		seen[slot] = true
	}
	if sink.writes != Slots {
		t.Errorf("glyph writes = %d, want %d", sink.writes, Slots)
	}
	if a.Evictions() != 0 {
		t.Errorf("evictions = %d while free slots remained", a.Evictions())
	}
	if got := len(a.Resident()); got != Slots {
		t.Errorf("Resident() has %d glyphs, want %d", got, Slots)
	}
}

func TestBindEvictsLRU(t *testing.T) {
	sink := &recordSink{}
	a := NewAllocator(sink)

	slots := make([]int, Slots)
	for i := range slots {
		s, err := a.Bind(testPattern(i))
		if err != nil {
			t.Fatalf("Bind(%d): %v", i, err)
		}
		slots[i] = s
	}

	// Next frame touches all but pattern 0, leaving it the coldest and
	// the only unpinned slot.
	a.BeginFrame()
	for i := 1; i < Slots; i++ {
		if _, ok := a.Lookup(testPattern(i)); !ok {
			t.Fatalf("Lookup(%d) missed a bound glyph", i)
		}
	}

	s, err := a.Bind(testPattern(9))
	if err != nil {
		t.Fatalf("Bind over full cache: %v", err)
	}
	if s != slots[0] {
		t.Errorf("evicted slot %d, want LRU slot %d", s, slots[0])
	}
	if a.Evictions() != 1 {
		t.Errorf("evictions = %d, want 1", a.Evictions())
	}
	if _, ok := a.Lookup(testPattern(0)); ok {
		t.Error("evicted glyph still resolves")
	}
	if got, ok := a.Lookup(testPattern(9)); !ok || got != s {
		t.Errorf("Lookup(new) = %d, %t, want %d, true", got, ok, s)
	}
}

func TestBindAllPinnedExhausted(t *testing.T) {
	a := NewAllocator(&recordSink{})

	// No BeginFrame between binds: every slot stays pinned.
	for i := 0; i < Slots; i++ {
		if _, err := a.Bind(testPattern(i)); err != nil {
			t.Fatalf("Bind(%d): %v", i, err)
		}
	}
	if _, err := a.Bind(testPattern(9)); !errors.Is(err, ErrSlotsExhausted) {
		t.Errorf("Bind with all slots pinned = %v, want ErrSlotsExhausted", err)
	}
}

func TestBindDropsBindingOnSinkError(t *testing.T) {
	fail := errors.New("bus fault")
	a := NewAllocator(failSink{fail})
	if _, err := a.Bind(testPattern(1)); !errors.Is(err, fail) {
		t.Fatalf("Bind = %v, want sink error", err)
	}
	if _, ok := a.Lookup(testPattern(1)); ok {
		t.Error("failed Bind left the glyph resolvable")
	}
	if got := len(a.Resident()); got != 0 {
		t.Errorf("Resident() has %d glyphs after failed Bind, want 0", got)
	}
}

type failSink struct{ err error }

func (s failSink) WriteGlyph(int, glyph.Bitmap) error { return s.err }
