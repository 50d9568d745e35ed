package st7066

import (
	"errors"
	"fmt"
	"time"

	"github.com/DrJosh9000/marquee/glyph"
)

// ErrBusyTimeout is returned when the controller's busy flag does not
// clear within Opts.BusyTimeout. During Init this is fatal (the
// controller is presumed unresponsive); afterwards the caller may retry
// the command or abort the current frame.
var ErrBusyTimeout = errors.New("st7066: busy flag did not clear")

// Opts is the configuration for a Dev.
type Opts struct {
	// Rows and Cols describe the visible grid. Rows must be 1 or 2;
	// Cols must be between 1 and 40.
	Rows, Cols int

	// LargeFont selects the 5x11 font instead of 5x8.
	LargeFont bool

	// BusyTimeout bounds each busy-flag poll loop. Default 50ms, well
	// above the 1.52ms worst case (clear display).
	BusyTimeout time.Duration

	// BusyPoll is the interval between busy-flag reads. Default 40µs.
	BusyPoll time.Duration
}

// DefaultOpts is a 16x2 display with the 5x8 font.
var DefaultOpts = Opts{Rows: 2, Cols: 16}

// ControllerState mirrors the controller's internal mode registers. It
// is mutated only by successful command execution on the owning Dev.
type ControllerState struct {
	// Busy is the flag observed by the most recent status read.
	Busy bool
	// AddressCounter shadows the controller's AC. CGRAMTarget reports
	// whether it currently addresses CGRAM rather than DDRAM.
	AddressCounter byte
	CGRAMTarget    bool

	EntryIncrement bool
	EntryShift     bool
	DisplayOn      bool
	CursorVisible  bool
	Blink          bool
	TwoLines       bool
	LargeFont      bool
}

// Dev is a handle to an ST7066-class controller behind a Port.
//
// Completion policy: Dev polls the busy flag before every command or data
// transfer (the bus must therefore be read-capable). Fixed delays are used
// only inside the power-on window of Init, where the datasheet forbids
// busy-flag reads.
type Dev struct {
	p          Port
	rows, cols int

	busyTimeout time.Duration
	busyPoll    time.Duration

	st      ControllerState
	acValid bool // address-counter shadow trustworthy
}

// New wires a Dev to a Port. The controller is not touched until Init is
// called.
func New(p Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if opts.Rows < 1 || opts.Rows > 2 {
		return nil, errors.New("st7066: rows must be 1 or 2")
	}
	if opts.Cols < 1 || opts.Cols > 40 {
		return nil, errors.New("st7066: cols must be between 1 and 40")
	}
	d := &Dev{
		p:           p,
		rows:        opts.Rows,
		cols:        opts.Cols,
		busyTimeout: opts.BusyTimeout,
		busyPoll:    opts.BusyPoll,
	}
	if d.busyTimeout == 0 {
		d.busyTimeout = 50 * time.Millisecond
	}
	if d.busyPoll == 0 {
		d.busyPoll = 40 * time.Microsecond
	}
	d.st.LargeFont = opts.LargeFont
	d.st.TwoLines = opts.Rows == 2
	return d, nil
}

// Rows returns the number of display rows.
func (d *Dev) Rows() int { return d.rows }

// Cols returns the number of display columns.
func (d *Dev) Cols() int { return d.cols }

// Cells returns the number of addressable character cells.
func (d *Dev) Cells() int { return d.rows * d.cols }

// State returns a snapshot of the shadowed controller state.
func (d *Dev) State() ControllerState { return d.st }

// Init runs the documented power-on command sequence: function set
// (repeated per the datasheet with fixed settle delays, since the busy
// flag cannot be read yet), then display off, clear, entry mode
// increment, display on, each gated on busy-flag clearance. The
// controller is not guaranteed to be in a known state after reset, so
// Init must be called before any other operation.
func (d *Dev) Init() error {
	fs := functionSet(true, d.st.TwoLines, d.st.LargeFont)

	// Power-on window: three function sets with fixed delays.
	time.Sleep(40 * time.Millisecond) // > 40ms after Vcc rises
	if _, err := d.p.Execute(Cycle{Register: Instruction, Value: fs}); err != nil {
		return fmt.Errorf("st7066: init: %w", err)
	}
	time.Sleep(4100 * time.Microsecond) // > 4.1ms
	if _, err := d.p.Execute(Cycle{Register: Instruction, Value: fs}); err != nil {
		return fmt.Errorf("st7066: init: %w", err)
	}
	time.Sleep(100 * time.Microsecond) // > 100µs
	if _, err := d.p.Execute(Cycle{Register: Instruction, Value: fs}); err != nil {
		return fmt.Errorf("st7066: init: %w", err)
	}
	time.Sleep(100 * time.Microsecond)

	// Busy flag readable from here on.
	for _, code := range []byte{
		fs,
		displayControl(false, false, false),
		cmdClear,
		entryMode(true, false),
		displayControl(true, false, false),
	} {
		if err := d.WriteCommand(code); err != nil {
			return fmt.Errorf("st7066: init: %w", err)
		}
	}
	return nil
}

// busyWait blocks until the busy flag clears, polling every BusyPoll, or
// returns ErrBusyTimeout after BusyTimeout.
func (d *Dev) busyWait() error {
	deadline := time.Now().Add(d.busyTimeout)
	for {
		busy, _, err := d.ReadBusyAndAddress()
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		time.Sleep(d.busyPoll)
	}
}

// ReadBusyAndAddress reads the busy flag and address counter. It requires
// a read-capable bus.
func (d *Dev) ReadBusyAndAddress() (busy bool, address byte, err error) {
	v, err := d.p.Execute(Cycle{Register: Instruction, Read: true})
	if err != nil {
		return false, 0, err
	}
	d.st.Busy = v&busyFlag != 0
	return d.st.Busy, v &^ busyFlag, nil
}

// WriteCommand waits for the busy flag to clear and writes code to the
// instruction register.
func (d *Dev) WriteCommand(code byte) error {
	if err := d.busyWait(); err != nil {
		return err
	}
	if _, err := d.p.Execute(Cycle{Register: Instruction, Value: code}); err != nil {
		return err
	}
	d.applyCommand(code)
	return nil
}

// applyCommand updates the state shadow after a successful command write.
func (d *Dev) applyCommand(code byte) {
	switch {
	case code&cmdDDRAMAddress != 0:
		d.st.AddressCounter = code &^ cmdDDRAMAddress
		d.st.CGRAMTarget = false
		d.acValid = true
	case code&cmdCGRAMAddress != 0:
		d.st.AddressCounter = code &^ cmdCGRAMAddress
		d.st.CGRAMTarget = true
		d.acValid = true
	case code&cmdFunctionSet != 0:
		d.st.TwoLines = code&0b00001000 != 0
		d.st.LargeFont = code&0b00000100 != 0
	case code&cmdShift != 0:
		// A display shift moves the window, a cursor move changes the
		// AC; neither is tracked precisely, so drop the shadow.
		d.acValid = false
	case code&cmdDisplayCtrl != 0:
		d.st.DisplayOn = code&0b00000100 != 0
		d.st.CursorVisible = code&0b00000010 != 0
		d.st.Blink = code&0b00000001 != 0
	case code&cmdEntryMode != 0:
		d.st.EntryIncrement = code&0b00000010 != 0
		d.st.EntryShift = code&0b00000001 != 0
	case code == cmdReturnHome, code == cmdClear:
		d.st.AddressCounter = 0
		d.st.CGRAMTarget = false
		d.acValid = true
		if code == cmdClear {
			d.st.EntryIncrement = true
		}
	}
}

// advanceAC moves the address-counter shadow after a data transfer,
// honoring the entry mode.
func (d *Dev) advanceAC() {
	if !d.acValid {
		return
	}
	mask := byte(0b01111111)
	if d.st.CGRAMTarget {
		mask = 0b00111111
	}
	if d.st.EntryIncrement {
		d.st.AddressCounter = (d.st.AddressCounter + 1) & mask
	} else {
		d.st.AddressCounter = (d.st.AddressCounter - 1) & mask
	}
}

// WriteData waits for the busy flag to clear and writes b to CGRAM or
// DDRAM, whichever the address counter targets.
func (d *Dev) WriteData(b byte) error {
	if err := d.busyWait(); err != nil {
		return err
	}
	if _, err := d.p.Execute(Cycle{Register: Data, Value: b}); err != nil {
		return err
	}
	d.advanceAC()
	return nil
}

// ReadData waits for the busy flag to clear and reads a byte from CGRAM
// or DDRAM, whichever the address counter targets.
func (d *Dev) ReadData() (byte, error) {
	if err := d.busyWait(); err != nil {
		return 0, err
	}
	v, err := d.p.Execute(Cycle{Register: Data, Read: true})
	if err != nil {
		return 0, err
	}
	d.advanceAC()
	return v, nil
}

// ClearDisplay clears the display, fills DDRAM with spaces and homes the
// cursor.
func (d *Dev) ClearDisplay() error { return d.WriteCommand(cmdClear) }

// ReturnHome homes the cursor and resets the display shift without
// touching DDRAM.
func (d *Dev) ReturnHome() error { return d.WriteCommand(cmdReturnHome) }

// SetEntryMode sets the address counter direction and whether writes also
// shift the display.
func (d *Dev) SetEntryMode(increment, shift bool) error {
	return d.WriteCommand(entryMode(increment, shift))
}

// SetDisplayMode turns on/off the whole display, the cursor, and cursor
// blink.
func (d *Dev) SetDisplayMode(display, cursor, blink bool) error {
	return d.WriteCommand(displayControl(display, cursor, blink))
}

// Shift shifts the display (display=true) or moves the cursor
// (display=false) one position in the given direction.
func (d *Dev) Shift(display, right bool) error {
	return d.WriteCommand(shift(display, right))
}

// SetCGRAMAddress points the address counter at row `row` of CGRAM slot
// `slot`. Subsequent data transfers target CGRAM.
func (d *Dev) SetCGRAMAddress(slot, row int) error {
	if slot < 0 || slot > 7 || row < 0 || row > 7 {
		return fmt.Errorf("st7066: CGRAM slot %d row %d out of range", slot, row)
	}
	return d.WriteCommand(cgramAddress(byte(slot<<3 | row)))
}

// SetDDRAMAddress points the address counter at the given DDRAM address.
// Subsequent data transfers target DDRAM.
func (d *Dev) SetDDRAMAddress(addr byte) error {
	return d.WriteCommand(ddramAddress(addr))
}

// DDRAMAddress maps a linear cell position (row-major over the visible
// grid) to its DDRAM address: row 0 starts at 0x00, row 1 at 0x40.
func (d *Dev) DDRAMAddress(pos int) (byte, error) {
	if pos < 0 || pos >= d.Cells() {
		return 0, fmt.Errorf("st7066: cell %d out of range", pos)
	}
	row, col := pos/d.cols, pos%d.cols
	return byte(row*0x40 + col), nil
}

// WriteGlyph programs CGRAM slot `slot` with the given bitmap, one data
// byte per row.
func (d *Dev) WriteGlyph(slot int, bm glyph.Bitmap) error {
	if err := d.SetCGRAMAddress(slot, 0); err != nil {
		return err
	}
	for _, row := range bm {
		if err := d.WriteData(row); err != nil {
			return err
		}
	}
	return nil
}

// ReadGlyph reads back the dot pattern of CGRAM slot `slot`.
func (d *Dev) ReadGlyph(slot int) (glyph.Bitmap, error) {
	if err := d.SetCGRAMAddress(slot, 0); err != nil {
		return glyph.Bitmap{}, err
	}
	var rows [8]uint8
	for i := range rows {
		v, err := d.ReadData()
		if err != nil {
			return glyph.Bitmap{}, err
		}
		rows[i] = v
	}
	return glyph.New(rows), nil
}

// WriteChar displays character code at the given cell position. Codes
// 0-7 select CGRAM slots; other values select ROM characters. The DDRAM
// address command is skipped when the shadowed address counter already
// points at the cell, so sequential writes ride the controller's
// auto-increment.
func (d *Dev) WriteChar(pos int, code byte) error {
	addr, err := d.DDRAMAddress(pos)
	if err != nil {
		return err
	}
	if !d.acValid || d.st.CGRAMTarget || d.st.AddressCounter != addr {
		if err := d.SetDDRAMAddress(addr); err != nil {
			return err
		}
	}
	return d.WriteData(code)
}
