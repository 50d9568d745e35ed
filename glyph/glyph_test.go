package glyph

import (
	"sort"
	"testing"
)

func TestNewMasksRows(t *testing.T) {
	b := New([8]uint8{0xFF, 0b10101010, 0, 0, 0, 0, 0, 0})
	if got, want := b[0], uint8(0b11111); got != want {
		t.Errorf("New row 0 = %05b, want %05b", got, want)
	}
	if got, want := b[1], uint8(0b01010); got != want {
		t.Errorf("New row 1 = %05b, want %05b", got, want)
	}
}

func TestDistance(t *testing.T) {
	a := Render('A')
	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %d, want 0", d)
	}
	blank := Bitmap{}
	one := New([8]uint8{0b00100, 0, 0, 0, 0, 0, 0, 0})
	if d := Distance(blank, one); d != 1 {
		t.Errorf("Distance(blank, one dot) = %d, want 1", d)
	}
	if Distance(a, blank) != Distance(blank, a) {
		t.Error("Distance is not symmetric")
	}
}

func TestColumnRoundTrip(t *testing.T) {
	for _, r := range "AHWgy!?" {
		bm := Render(r)
		var cols [5]uint8
		for x := range cols {
			cols[x] = bm.Column(x)
		}
		if got := FromColumns(cols); got != bm {
			t.Errorf("FromColumns(columns of %q):\n%v\nwant:\n%v", r, got, bm)
		}
	}
}

func TestRenderUnknownRuneIsBlank(t *testing.T) {
	if got := Render('é'); !got.IsBlank() {
		t.Errorf("Render('é') = non-blank:\n%v", got)
	}
}

func TestString(t *testing.T) {
	bm := New([8]uint8{0b10001, 0, 0, 0, 0, 0, 0, 0b11111})
	const want = "#:::#\n:::::\n:::::\n:::::\n:::::\n:::::\n:::::\n#####"
	if got := bm.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLookupMatchesASCII(t *testing.T) {
	// The font glyphs of the printable ASCII characters are the same dot
	// patterns the controller ROM holds at their character codes.
	for _, r := range " !#0129:;ABHYZ[]az{}" {
		code, ok := Lookup(Render(r))
		if !ok {
			t.Errorf("Lookup(Render(%q)): no ROM match", r)
			continue
		}
		if code != byte(r) {
			t.Errorf("Lookup(Render(%q)) = %#02x, want %#02x", r, code, byte(r))
		}
	}
}

func TestLookupBlank(t *testing.T) {
	code, ok := Lookup(Bitmap{})
	if !ok || code != 0x20 {
		t.Errorf("Lookup(blank) = %#02x, %t, want 0x20, true", code, ok)
	}
}

func TestLookupMiss(t *testing.T) {
	// A lone dot in the top-left corner is not a ROM character.
	odd := New([8]uint8{0b10000, 0, 0, 0, 0, 0, 0, 0})
	if code, ok := Lookup(odd); ok {
		t.Errorf("Lookup(odd) = %#02x, want miss", code)
	}
}

func TestROMOrderedAndConsistent(t *testing.T) {
	all := ROM()
	if len(all) == 0 {
		t.Fatal("ROM() is empty")
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Code < all[j].Code }) {
		t.Error("ROM() not in ascending code order")
	}
	for _, g := range all {
		code, ok := Lookup(g.Bitmap)
		if !ok || code != g.Code {
			t.Errorf("Lookup(ROM %#02x) = %#02x, %t", g.Code, code, ok)
		}
	}
}
