package marquee

import "github.com/DrJosh9000/marquee/glyph"

// Gap selects how the physical gap between adjacent character cells is
// treated during pixel scrolling.
type Gap int

const (
	// GapSkip elides the gap from pixel space: the last column of one
	// cell is pixel-adjacent to the first column of the next, giving
	// continuous apparent motion.
	GapSkip Gap = iota
	// GapHide keeps the gap in pixel space as a dedicated column that is
	// never rendered; content scrolls through it and briefly disappears,
	// matching what a real display's dot spacing does.
	GapHide
)

// stride is how many pixel columns of the scroll path one cell consumes.
func (g Gap) stride() int {
	if g == GapHide {
		return 6
	}
	return 5
}

// Strip is a horizontal pixel strip, 8 dots tall and arbitrarily wide.
// It is stored column-major: one byte per column, bit y set for an on dot
// in row y.
type Strip []uint8

// NewStripString renders a string into a Strip by concatenating the
// 5-column font glyph of each rune. Runes without a font entry render
// blank.
func NewStripString(s string) Strip {
	st := make(Strip, 0, 5*len(s))
	for _, r := range s {
		bm := glyph.Render(r)
		for x := 0; x < 5; x++ {
			st = append(st, bm.Column(x))
		}
	}
	return st
}

// Width returns the strip width in pixels.
func (s Strip) Width() int { return len(s) }

// Column returns pixel column x, or a blank column outside the strip.
func (s Strip) Column(x int) uint8 {
	if x < 0 || x >= len(s) {
		return 0
	}
	return s[x]
}

// Sequence is a scrolling animation: a master pixel strip advanced Step
// pixels per frame under the given gap policy.
type Sequence struct {
	Strip Strip
	Step  int // pixels per frame, minimum 1
	Gap   Gap
}

func (q Sequence) step() int {
	if q.Step < 1 {
		return 1
	}
	return q.Step
}

// Extent is the full scroll range in pixels for a display of the given
// cell count: the strip enters from the right edge and exits completely
// off the left.
func (q Sequence) Extent(cells int) int {
	return q.Strip.Width() + cells*q.Gap.stride()
}

// Frames is the number of frames a full scroll produces.
func (q Sequence) Frames(cells int) int {
	return q.Extent(cells)/q.step() + 1
}

// Compose renders the frame at the given scroll offset: one 5x8 bitmap
// per cell, taken from the cell's pixel window into the strip. Under
// GapSkip cells advance 5 strip columns each; under GapHide they advance
// 6, with the sixth column swallowed by the physical gap.
func Compose(q Sequence, offset, cells int) []glyph.Bitmap {
	stride := q.Gap.stride()
	lead := cells * stride
	out := make([]glyph.Bitmap, cells)
	for i := range out {
		base := offset + i*stride - lead
		var cols [5]uint8
		for x := range cols {
			cols[x] = q.Strip.Column(base + x)
		}
		out[i] = glyph.FromColumns(cols)
	}
	return out
}
