// Package st7066 is a driver for ST7066 (and HD44780-compatible) character
// LCD controllers connected over an 8-bit parallel GPIO bus (using
// periph.io).
package st7066

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrInvalidCycle is returned for a bus cycle that the wiring cannot
// perform, such as a read on a write-only bus (RW tied low). It indicates
// a programming error in the caller, not a hardware fault.
var ErrInvalidCycle = errors.New("st7066: invalid bus cycle")

// Register selects which controller register a bus cycle targets.
type Register int

const (
	// Instruction is the command/status register (RS low).
	Instruction Register = iota
	// Data is the CGRAM/DDRAM data register (RS high).
	Data
)

// Cycle describes one atomic controller bus transaction: a single byte
// written to or read from one register.
type Cycle struct {
	Register Register
	Read     bool
	Value    byte // payload for writes, ignored for reads
}

// Port executes controller bus cycles. Implementations must satisfy the
// controller's electrical timing before returning; for reads, the sampled
// byte is returned.
type Port interface {
	Execute(c Cycle) (byte, error)
}

// Timings holds the bus timing constants from the controller datasheet.
// Different controller revisions vary, so these are configurable rather
// than hard-coded.
type Timings struct {
	// AddressSetup is the wait between driving RS/RW and raising E
	// (tAS, >= 60ns on the ST7066U).
	AddressSetup time.Duration
	// DataSetup is the wait after raising E before data is latched on
	// writes, or valid for sampling on reads (tDSW/tDDR).
	DataSetup time.Duration
	// EnableLow is the wait after dropping E, completing the enable
	// cycle (PWEH >= 450ns, tCYCE >= 1200ns).
	EnableLow time.Duration
}

// DefaultTimings are conservative values comfortably above the ST7066U
// datasheet minimums.
var DefaultTimings = Timings{
	AddressSetup: 250 * time.Nanosecond, // tAS > 60ns
	DataSetup:    250 * time.Nanosecond, // tDSW > 195ns, tDDR < 360ns
	EnableLow:    500 * time.Nanosecond, // tCYCE > 1200ns total
}

// Bus drives the controller's 8-bit parallel interface directly over GPIO
// pins. RW is optional: if nil, the RW line is assumed tied low and read
// cycles fail with ErrInvalidCycle.
type Bus struct {
	RS, RW, E gpio.PinIO    // register select, read/write, enable
	DB        [8]gpio.PinIO // data bits 0 - 7

	// Timings override DefaultTimings when non-zero.
	Timings Timings
}

func (b *Bus) timings() Timings {
	t := b.Timings
	if t == (Timings{}) {
		t = DefaultTimings
	}
	return t
}

// Execute performs one bus cycle, pulsing E once per the configured
// timings.
func (b *Bus) Execute(c Cycle) (byte, error) {
	if c.Read && b.RW == nil {
		return 0, ErrInvalidCycle
	}
	if c.Read {
		return b.read(c.Register)
	}
	return 0, b.write(c.Register, c.Value)
}

func (b *Bus) write(reg Register, value byte) error {
	t := b.timings()

	// Ensure the data pins are outputs.
	for i := range b.DB {
		if err := b.DB[i].Out(gpio.Low); err != nil {
			return err
		}
	}

	if err := b.RS.Out(gpio.Level(reg == Data)); err != nil {
		return err
	}
	if b.RW != nil {
		if err := b.RW.Out(gpio.Low); err != nil {
			return err
		}
	}
	time.Sleep(t.AddressSetup)

	if err := b.E.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(t.DataSetup)

	for i := range b.DB {
		if err := b.DB[i].Out(gpio.Level(value&(1<<i) != 0)); err != nil {
			return err
		}
	}

	if err := b.E.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(t.EnableLow)
	return nil
}

func (b *Bus) read(reg Register) (byte, error) {
	t := b.timings()

	// Float the data pins so the controller can drive them.
	for i := range b.DB {
		if err := b.DB[i].In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return 0, err
		}
	}

	if err := b.RS.Out(gpio.Level(reg == Data)); err != nil {
		return 0, err
	}
	if err := b.RW.Out(gpio.High); err != nil {
		return 0, err
	}
	time.Sleep(t.AddressSetup)

	if err := b.E.Out(gpio.High); err != nil {
		return 0, err
	}
	time.Sleep(t.DataSetup)

	var value byte
	for i := range b.DB {
		if b.DB[i].Read() {
			value |= 1 << i
		}
	}

	if err := b.E.Out(gpio.Low); err != nil {
		return 0, err
	}
	time.Sleep(t.EnableLow)
	return value, nil
}
