package st7066_test

import (
	"errors"
	"testing"
	"time"

	"github.com/DrJosh9000/marquee/glyph"
	"github.com/DrJosh9000/marquee/st7066"
	"github.com/DrJosh9000/marquee/st7066/st7066test"
)

func newDev(t *testing.T, ctrl *st7066test.Controller, opts *st7066.Opts) *st7066.Dev {
	t.Helper()
	d, err := st7066.New(ctrl, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *st7066.Opts
		wantErr bool
	}{
		{"nil opts (defaults)", nil, false},
		{"16x2", &st7066.Opts{Rows: 2, Cols: 16}, false},
		{"40x1", &st7066.Opts{Rows: 1, Cols: 40}, false},
		{"zero rows", &st7066.Opts{Rows: 0, Cols: 16}, true},
		{"three rows", &st7066.Opts{Rows: 3, Cols: 16}, true},
		{"zero cols", &st7066.Opts{Rows: 2, Cols: 0}, true},
		{"41 cols", &st7066.Opts{Rows: 2, Cols: 41}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st7066.New(st7066test.New(), tt.opts)
			if gotErr := err != nil; gotErr != tt.wantErr {
				t.Errorf("New error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	ctrl := st7066test.New()
	d := newDev(t, ctrl, &st7066.Opts{Rows: 2, Cols: 16})
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// The recorded instruction writes must be the documented power-on
	// sequence: function set four times (three inside the settle
	// window), display off, clear, entry mode increment, display on.
	var cmds []byte
	for _, cy := range ctrl.Cycles() {
		if cy.Register == st7066.Instruction && !cy.Read {
			cmds = append(cmds, cy.Value)
		}
	}
	want := []byte{0x38, 0x38, 0x38, 0x38, 0x08, 0x01, 0x06, 0x0C}
	if len(cmds) != len(want) {
		t.Fatalf("instruction writes = % x, want % x", cmds, want)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("instruction write %d = %#02x, want %#02x", i, cmds[i], want[i])
		}
	}

	if !ctrl.DisplayOn() {
		t.Error("display off after Init")
	}
	if ctrl.CursorVisible() {
		t.Error("cursor visible after Init")
	}
	if !ctrl.Increment() {
		t.Error("entry mode not increment after Init")
	}

	st := d.State()
	if !st.DisplayOn || st.CursorVisible || st.Blink || !st.EntryIncrement {
		t.Errorf("State() = %+v after Init", st)
	}
}

func TestBusyPolling(t *testing.T) {
	ctrl := st7066test.New()
	ctrl.BusyPolls = 3
	d := newDev(t, ctrl, nil)
	if err := d.WriteCommand(0x01); err != nil {
		t.Fatalf("WriteCommand with transient busy: %v", err)
	}
	if err := d.WriteData('x'); err != nil {
		t.Fatalf("WriteData with transient busy: %v", err)
	}
}

func TestBusyTimeout(t *testing.T) {
	ctrl := st7066test.New()
	ctrl.WedgeBusy = true
	d := newDev(t, ctrl, &st7066.Opts{
		Rows: 2, Cols: 16,
		BusyTimeout: time.Millisecond,
		BusyPoll:    100 * time.Microsecond,
	})
	if err := d.WriteCommand(0x01); !errors.Is(err, st7066.ErrBusyTimeout) {
		t.Errorf("WriteCommand on wedged controller = %v, want ErrBusyTimeout", err)
	}
}

func TestGlyphRoundTrip(t *testing.T) {
	ctrl := st7066test.New()
	d := newDev(t, ctrl, nil)

	bm := glyph.Render('W')
	if err := d.WriteGlyph(3, bm); err != nil {
		t.Fatalf("WriteGlyph: %v", err)
	}
	if got := ctrl.Glyph(3); got != bm {
		t.Errorf("controller CGRAM slot 3:\n%v\nwant:\n%v", got, bm)
	}
	got, err := d.ReadGlyph(3)
	if err != nil {
		t.Fatalf("ReadGlyph: %v", err)
	}
	if got != bm {
		t.Errorf("ReadGlyph(3):\n%v\nwant:\n%v", got, bm)
	}
	// Reads are not data writes: only the 8 row bytes were written.
	if got := ctrl.DataWrites(); got != 8 {
		t.Errorf("DataWrites() = %d, want 8", got)
	}
}

func TestDDRAMAddress(t *testing.T) {
	d := newDev(t, st7066test.New(), &st7066.Opts{Rows: 2, Cols: 16})
	tests := []struct {
		pos  int
		want byte
	}{
		{0, 0x00},
		{15, 0x0F},
		{16, 0x40},
		{31, 0x4F},
	}
	for _, tt := range tests {
		got, err := d.DDRAMAddress(tt.pos)
		if err != nil {
			t.Errorf("DDRAMAddress(%d): %v", tt.pos, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DDRAMAddress(%d) = %#02x, want %#02x", tt.pos, got, tt.want)
		}
	}
	for _, pos := range []int{-1, 32} {
		if _, err := d.DDRAMAddress(pos); err == nil {
			t.Errorf("DDRAMAddress(%d): no error", pos)
		}
	}
}

func TestWriteCharRidesAutoIncrement(t *testing.T) {
	ctrl := st7066test.New()
	d := newDev(t, ctrl, &st7066.Opts{Rows: 2, Cols: 16})
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	before := addressSets(ctrl)

	// The clear inside Init homed the address counter, so sequential
	// writes from cell 0 ride the auto-increment with no address sets.
	for i, c := range []byte("Hola") {
		if err := d.WriteChar(i, c); err != nil {
			t.Fatalf("WriteChar(%d): %v", i, err)
		}
	}
	if got := addressSets(ctrl) - before; got != 0 {
		t.Errorf("sequential WriteChar issued %d DDRAM address sets, want 0", got)
	}
	if got, want := string(ctrl.Row(0, 4)), "Hola"; got != want {
		t.Errorf("row 0 = %q, want %q", got, want)
	}

	// Crossing to the second row breaks the auto-increment run.
	if err := d.WriteChar(16, 'x'); err != nil {
		t.Fatalf("WriteChar(16): %v", err)
	}
	if got := addressSets(ctrl) - before; got != 1 {
		t.Errorf("row crossing issued %d DDRAM address sets total, want 1", got)
	}
	if got := ctrl.Row(1, 1)[0]; got != 'x' {
		t.Errorf("row 1 cell 0 = %q, want 'x'", got)
	}

	// A CGRAM access invalidates the DDRAM pointer.
	if err := d.WriteGlyph(0, glyph.Render('#')); err != nil {
		t.Fatalf("WriteGlyph: %v", err)
	}
	if err := d.WriteChar(17, 0); err != nil {
		t.Fatalf("WriteChar(17): %v", err)
	}
	if got := addressSets(ctrl) - before; got != 2 {
		t.Errorf("post-CGRAM write issued %d DDRAM address sets total, want 2", got)
	}
}

// addressSets counts DDRAM address commands recorded by the controller.
func addressSets(ctrl *st7066test.Controller) int {
	n := 0
	for _, cy := range ctrl.Cycles() {
		if cy.Register == st7066.Instruction && !cy.Read && cy.Value&0x80 != 0 {
			n++
		}
	}
	return n
}

func TestReadBusyAndAddress(t *testing.T) {
	ctrl := st7066test.New()
	d := newDev(t, ctrl, nil)
	if err := d.SetDDRAMAddress(0x12); err != nil {
		t.Fatalf("SetDDRAMAddress: %v", err)
	}
	busy, addr, err := d.ReadBusyAndAddress()
	if err != nil {
		t.Fatalf("ReadBusyAndAddress: %v", err)
	}
	if busy {
		t.Error("busy = true on idle controller")
	}
	if addr != 0x12 {
		t.Errorf("address = %#02x, want 0x12", addr)
	}
}

func TestSetCGRAMAddressRange(t *testing.T) {
	d := newDev(t, st7066test.New(), nil)
	if err := d.SetCGRAMAddress(8, 0); err == nil {
		t.Error("SetCGRAMAddress(8, 0): no error")
	}
	if err := d.SetCGRAMAddress(0, 8); err == nil {
		t.Error("SetCGRAMAddress(0, 8): no error")
	}
}
