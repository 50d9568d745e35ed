package marquee

import (
	"errors"

	"github.com/DrJosh9000/marquee/glyph"
)

// Slots is the number of reprogrammable glyph slots an ST7066-class
// controller provides.
const Slots = 8

// ErrSlotsExhausted is returned by Bind when every slot is pinned by the
// frame currently being rendered, so no slot can be evicted without
// corrupting a cell of that same frame.
var ErrSlotsExhausted = errors.New("marquee: all CGRAM slots pinned by current frame")

// GlyphSink programs a controller CGRAM slot. *st7066.Dev satisfies it.
type GlyphSink interface {
	WriteGlyph(slot int, bm glyph.Bitmap) error
}

type cgramSlot struct {
	bm       glyph.Bitmap
	bound    bool
	pinned   bool
	lastUsed uint64
}

// Allocator manages the controller's CGRAM slots as a cache keyed by
// bitmap content with LRU eviction. A Lookup hit costs no bus traffic;
// a Bind costs one glyph write, the rendering pipeline's main latency.
type Allocator struct {
	sink  GlyphSink
	slots [Slots]cgramSlot

	clock     uint64
	evictions uint64

	limit int // bindable slots, lowered only by tests
}

// NewAllocator returns an empty allocator writing through sink.
func NewAllocator(sink GlyphSink) *Allocator {
	return &Allocator{sink: sink, limit: Slots}
}

// BeginFrame unpins all slots. Slots resolved during a frame are pinned
// until the next BeginFrame so that eviction never touches a glyph the
// in-flight frame displays.
func (a *Allocator) BeginFrame() {
	for i := range a.slots {
		a.slots[i].pinned = false
	}
}

func (a *Allocator) touch(i int) {
	a.clock++
	a.slots[i].lastUsed = a.clock
	a.slots[i].pinned = true
}

// Lookup finds the slot already bound to bm, if any, updating its LRU
// position. It performs no bus writes.
func (a *Allocator) Lookup(bm glyph.Bitmap) (slot int, ok bool) {
	for i := 0; i < a.limit; i++ {
		if a.slots[i].bound && a.slots[i].bm == bm {
			a.touch(i)
			return i, true
		}
	}
	return 0, false
}

// Touch refreshes the LRU position of a bound slot and pins it for the
// current frame. It is a no-op for unbound slots.
func (a *Allocator) Touch(slot int) {
	if slot >= 0 && slot < a.limit && a.slots[slot].bound {
		a.touch(slot)
	}
}

// Bind binds bm to a slot, programming the controller. A free slot is
// used if one exists; otherwise the least-recently-used unpinned slot is
// evicted and rebound. Eviction never blocks, but costs a bus write.
func (a *Allocator) Bind(bm glyph.Bitmap) (slot int, err error) {
	victim := -1
	for i := 0; i < a.limit; i++ {
		if !a.slots[i].bound {
			victim = i
			break
		}
		if a.slots[i].pinned {
			continue
		}
		if victim == -1 || a.slots[i].lastUsed < a.slots[victim].lastUsed {
			victim = i
		}
	}
	if victim == -1 {
		return 0, ErrSlotsExhausted
	}
	if a.slots[victim].bound {
		a.evictions++
	}
	if err := a.sink.WriteGlyph(victim, bm); err != nil {
		// CGRAM contents are now unknown; drop the binding.
		a.slots[victim].bound = false
		return 0, err
	}
	a.slots[victim].bm = bm
	a.slots[victim].bound = true
	a.touch(victim)
	return victim, nil
}

// Resolve returns the slot holding bm, binding it if necessary.
func (a *Allocator) Resolve(bm glyph.Bitmap) (slot int, err error) {
	if slot, ok := a.Lookup(bm); ok {
		return slot, nil
	}
	return a.Bind(bm)
}

// Evictions returns the number of rebinds forced so far. This is the
// allocator's observability hook; the core does not log.
func (a *Allocator) Evictions() uint64 { return a.evictions }

// ResidentGlyph is a currently bound CGRAM slot and its dot pattern.
type ResidentGlyph struct {
	Slot   int
	Bitmap glyph.Bitmap
}

// Resident returns the bound slots in slot order, the candidate set for
// nearest-glyph approximation.
func (a *Allocator) Resident() []ResidentGlyph {
	var out []ResidentGlyph
	for i := 0; i < a.limit; i++ {
		if a.slots[i].bound {
			out = append(out, ResidentGlyph{Slot: i, Bitmap: a.slots[i].bm})
		}
	}
	return out
}
