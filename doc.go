// Package marquee renders pixel-level scrolling animations on ST7066
// (HD44780-compatible) character LCD modules driven over GPIO pins
// (using periph.io).
//
// These displays address fixed 5x8 character cells, not pixels. Smooth
// sub-character motion is faked by reprogramming the controller's 8
// CGRAM glyph slots each frame: the animation strip is windowed into
// per-cell bitmaps, bitmaps that match a built-in ROM character cost
// nothing, the rest are cached in CGRAM slots with LRU eviction, and
// when one frame needs more distinct bitmaps than the controller has
// slots, the nearest existing glyph stands in. The result degrades
// visibly under slot pressure, by how much is measurable through the
// player's counters.
//
// The st7066 subpackage is the controller driver and is usable on its
// own; the st7066test subpackage is a software controller for tests.
package marquee
