// Package glyph provides the 5x8 dot-matrix bitmaps used by ST7066-class
// character LCD controllers, the controller's built-in ROM character table,
// and a text font for rendering runes into bitmaps.
package glyph

import (
	"math/bits"
	"strings"
)

// Bitmap is a 5x8 black-and-white dot matrix, one byte per row with the
// low 5 bits used. Row 0 is the top row; bit 4 is the leftmost dot.
// Bitmap is comparable and can be used directly as a map key.
type Bitmap [8]uint8

// New builds a Bitmap from raw row bytes, masking each row to 5 bits.
func New(rows [8]uint8) Bitmap {
	var b Bitmap
	for i, r := range rows {
		b[i] = r & 0b11111
	}
	return b
}

// Distance is the Hamming distance between two bitmaps: the number of
// dots that differ.
func Distance(a, b Bitmap) int {
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}

// IsBlank reports whether no dot is set.
func (b Bitmap) IsBlank() bool {
	return b == Bitmap{}
}

// Column returns column x (0 = leftmost) as a byte with bit y set for
// each on dot in row y.
func (b Bitmap) Column(x int) uint8 {
	var c uint8
	for y, row := range b {
		if row&(1<<(4-x)) != 0 {
			c |= 1 << y
		}
	}
	return c
}

// FromColumns builds a Bitmap from 5 column bytes as returned by Column.
func FromColumns(cols [5]uint8) Bitmap {
	var b Bitmap
	for x, c := range cols {
		for y := 0; y < 8; y++ {
			if c&(1<<y) != 0 {
				b[y] |= 1 << (4 - x)
			}
		}
	}
	return b
}

// String renders the bitmap with '#' for on dots and ':' for off dots,
// one line per row.
func (b Bitmap) String() string {
	var sb strings.Builder
	for y, row := range b {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 4; x >= 0; x-- {
			if row&(1<<x) != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte(':')
			}
		}
	}
	return sb.String()
}
