package marquee

import (
	"errors"

	"github.com/DrJosh9000/marquee/glyph"
)

// ErrNoCandidate is returned when approximation has no glyph to fall
// back on (no ROM table and no resident CGRAM bitmaps). It indicates a
// broken configuration and aborts the sequence.
var ErrNoCandidate = errors.New("marquee: no candidate glyph to approximate with")

// Ref identifies what to display in one cell: either a built-in ROM
// character or a CGRAM slot.
type Ref struct {
	// Code is the character code written to DDRAM. For CGRAM references
	// it is the slot index (the controller maps codes 0-7 onto the
	// slots).
	Code    byte
	Builtin bool
}

// BuiltinRef references a ROM character.
func BuiltinRef(code byte) Ref { return Ref{Code: code, Builtin: true} }

// SlotRef references a CGRAM slot.
func SlotRef(slot int) Ref { return Ref{Code: byte(slot)} }

// Slot returns the CGRAM slot index of a non-builtin Ref.
func (r Ref) Slot() int { return int(r.Code) }

// nearest finds the glyph closest to bm by Hamming distance among the
// resident CGRAM bitmaps and the ROM table. Residents are scanned first
// in slot order and ROM glyphs in code order, and a later candidate must
// strictly improve the distance, so ties prefer an already-resident
// glyph over a ROM one and the search is deterministic across runs.
func nearest(bm glyph.Bitmap, resident []ResidentGlyph, rom []glyph.ROMGlyph) (Ref, int, error) {
	best := Ref{}
	bestDist := -1
	for _, r := range resident {
		if d := glyph.Distance(bm, r.Bitmap); bestDist == -1 || d < bestDist {
			best, bestDist = SlotRef(r.Slot), d
		}
	}
	for _, g := range rom {
		if d := glyph.Distance(bm, g.Bitmap); bestDist == -1 || d < bestDist {
			best, bestDist = BuiltinRef(g.Code), d
		}
	}
	if bestDist == -1 {
		return Ref{}, 0, ErrNoCandidate
	}
	return best, bestDist, nil
}
