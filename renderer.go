package marquee

import (
	"errors"

	"github.com/DrJosh9000/marquee/glyph"
)

// renderer resolves per-cell bitmaps into glyph references, tying the
// CGRAM allocator and the approximation fallback together. Exact ROM
// reuse, merge-under-cutoff and lossy approximation are one mechanism
// with a distance threshold: 0 means exact only.
type renderer struct {
	alloc *Allocator
	rom   []glyph.ROMGlyph

	// memo caches approximation results by the original bitmap for the
	// remainder of the run, so a given bitmap always resolves to the
	// same reference.
	memo map[glyph.Bitmap]Ref

	// mergeDistance, when > 0, lets a near-enough existing glyph stand
	// in for a new bitmap even while slots remain, trading fidelity for
	// bus writes.
	mergeDistance int

	approximations uint64
}

func newRenderer(sink GlyphSink, mergeDistance int) *renderer {
	return &renderer{
		alloc:         NewAllocator(sink),
		rom:           glyph.ROM(),
		memo:          make(map[glyph.Bitmap]Ref),
		mergeDistance: mergeDistance,
	}
}

func (r *renderer) beginFrame() { r.alloc.BeginFrame() }

// resolve maps one composite cell bitmap to a glyph reference.
// Resolution order: exact ROM match, memoized approximation, resident
// CGRAM slot, merge within the distance cutoff, fresh slot, and finally
// nearest-glyph approximation once the frame has pinned all slots.
func (r *renderer) resolve(bm glyph.Bitmap) (Ref, error) {
	if code, ok := glyph.Lookup(bm); ok {
		return BuiltinRef(code), nil
	}
	if ref, ok := r.memo[bm]; ok {
		if !ref.Builtin {
			r.alloc.Touch(ref.Slot())
		}
		return ref, nil
	}
	if slot, ok := r.alloc.Lookup(bm); ok {
		return SlotRef(slot), nil
	}
	if r.mergeDistance > 0 {
		ref, dist, err := nearest(bm, r.alloc.Resident(), r.rom)
		if err == nil && dist <= r.mergeDistance {
			r.remember(bm, ref)
			return ref, nil
		}
	}
	slot, err := r.alloc.Bind(bm)
	if err == nil {
		return SlotRef(slot), nil
	}
	if !errors.Is(err, ErrSlotsExhausted) {
		return Ref{}, err
	}
	// More distinct bitmaps than slots: substitute the nearest existing
	// glyph. Lossy, but bounded in both slots and latency.
	ref, _, err := nearest(bm, r.alloc.Resident(), r.rom)
	if err != nil {
		return Ref{}, err
	}
	r.remember(bm, ref)
	return ref, nil
}

func (r *renderer) remember(bm glyph.Bitmap, ref Ref) {
	r.approximations++
	r.memo[bm] = ref
	if !ref.Builtin {
		r.alloc.Touch(ref.Slot())
	}
}
