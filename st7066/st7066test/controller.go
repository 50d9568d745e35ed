// Package st7066test provides an in-memory ST7066 controller for testing
// driver and rendering code without hardware. It interprets the same
// command set as the real chip and records every bus cycle it executes.
package st7066test

import (
	"github.com/DrJosh9000/marquee/glyph"
	"github.com/DrJosh9000/marquee/st7066"
)

// Controller is a software ST7066. It implements st7066.Port.
type Controller struct {
	// BusyPolls is how many status reads report busy after each command
	// or data transfer. Zero means the controller always appears idle.
	BusyPolls int

	// WedgeBusy makes the busy flag never clear, for timeout tests.
	WedgeBusy bool

	ddram [0x68]byte
	cgram [64]byte

	ac          byte
	cgramTarget bool
	increment   bool

	displayOn, cursorVisible, blink bool
	twoLines, largeFont             bool

	busyLeft int

	cycles     []st7066.Cycle
	dataWrites int
}

// New returns an idle controller with DDRAM filled with spaces.
func New() *Controller {
	c := &Controller{increment: true}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	return c
}

// Execute interprets one bus cycle.
func (c *Controller) Execute(cy st7066.Cycle) (byte, error) {
	c.cycles = append(c.cycles, cy)

	if cy.Read {
		if cy.Register == st7066.Instruction {
			return c.readStatus(), nil
		}
		return c.readData(), nil
	}

	if cy.Register == st7066.Instruction {
		c.command(cy.Value)
	} else {
		c.writeData(cy.Value)
	}
	c.busyLeft = c.BusyPolls
	return 0, nil
}

func (c *Controller) readStatus() byte {
	if c.WedgeBusy {
		return 0b10000000 | c.ac
	}
	if c.busyLeft > 0 {
		c.busyLeft--
		return 0b10000000 | c.ac
	}
	return c.ac
}

func (c *Controller) command(code byte) {
	switch {
	case code&0b10000000 != 0:
		c.ac = code & 0b01111111
		c.cgramTarget = false
	case code&0b01000000 != 0:
		c.ac = code & 0b00111111
		c.cgramTarget = true
	case code&0b00100000 != 0:
		c.twoLines = code&0b00001000 != 0
		c.largeFont = code&0b00000100 != 0
	case code&0b00010000 != 0:
		// Display shift not modelled; cursor move adjusts the AC.
		if code&0b00001000 == 0 {
			if code&0b00000100 != 0 {
				c.ac++
			} else {
				c.ac--
			}
		}
	case code&0b00001000 != 0:
		c.displayOn = code&0b00000100 != 0
		c.cursorVisible = code&0b00000010 != 0
		c.blink = code&0b00000001 != 0
	case code&0b00000100 != 0:
		c.increment = code&0b00000010 != 0
	case code == 0b00000010:
		c.ac = 0
		c.cgramTarget = false
	case code == 0b00000001:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.ac = 0
		c.cgramTarget = false
		c.increment = true
	}
}

func (c *Controller) writeData(b byte) {
	c.dataWrites++
	if c.cgramTarget {
		c.cgram[c.ac&0b00111111] = b & 0b00011111
	} else if int(c.ac) < len(c.ddram) {
		c.ddram[c.ac] = b
	}
	c.step()
}

func (c *Controller) readData() byte {
	var b byte
	if c.cgramTarget {
		b = c.cgram[c.ac&0b00111111]
	} else if int(c.ac) < len(c.ddram) {
		b = c.ddram[c.ac]
	}
	c.step()
	return b
}

func (c *Controller) step() {
	mask := byte(0b01111111)
	if c.cgramTarget {
		mask = 0b00111111
	}
	if c.increment {
		c.ac = (c.ac + 1) & mask
	} else {
		c.ac = (c.ac - 1) & mask
	}
}

// Cycles returns every bus cycle executed so far.
func (c *Controller) Cycles() []st7066.Cycle { return c.cycles }

// DataWrites returns the number of data-register write cycles executed.
func (c *Controller) DataWrites() int { return c.dataWrites }

// DisplayOn reports the display-on flag.
func (c *Controller) DisplayOn() bool { return c.displayOn }

// CursorVisible reports the cursor flag.
func (c *Controller) CursorVisible() bool { return c.cursorVisible }

// Increment reports the entry-mode direction.
func (c *Controller) Increment() bool { return c.increment }

// Glyph returns the dot pattern programmed into a CGRAM slot.
func (c *Controller) Glyph(slot int) glyph.Bitmap {
	var rows [8]uint8
	copy(rows[:], c.cgram[slot*8:slot*8+8])
	return glyph.New(rows)
}

// Row returns the character codes of one display row (row 0 at DDRAM
// 0x00, row 1 at 0x40), cols bytes wide.
func (c *Controller) Row(row, cols int) []byte {
	out := make([]byte, cols)
	copy(out, c.ddram[row*0x40:row*0x40+cols])
	return out
}
