package st7066

// Controller command encodings, per the ST7066U datasheet. Each builder
// returns the instruction-register byte for one command.

const (
	cmdClear        = 0b00000001
	cmdReturnHome   = 0b00000010
	cmdEntryMode    = 0b00000100
	cmdDisplayCtrl  = 0b00001000
	cmdShift        = 0b00010000
	cmdFunctionSet  = 0b00100000
	cmdCGRAMAddress = 0b01000000
	cmdDDRAMAddress = 0b10000000
)

// busyFlag is the busy bit in the value returned by a status read; the
// remaining bits are the address counter.
const busyFlag = 0b10000000

func entryMode(increment, shift bool) byte {
	a := byte(cmdEntryMode)
	if increment {
		a |= 0b00000010
	}
	if shift {
		a |= 0b00000001
	}
	return a
}

func displayControl(display, cursor, blink bool) byte {
	a := byte(cmdDisplayCtrl)
	if display {
		a |= 0b00000100
	}
	if cursor {
		a |= 0b00000010
	}
	if blink {
		a |= 0b00000001
	}
	return a
}

func shift(display, right bool) byte {
	a := byte(cmdShift)
	if display {
		a |= 0b00001000
	}
	if right {
		a |= 0b00000100
	}
	return a
}

func functionSet(eightBit, twoLines, largeFont bool) byte {
	a := byte(cmdFunctionSet)
	if eightBit {
		a |= 0b00010000
	}
	if twoLines {
		a |= 0b00001000
	}
	if largeFont {
		a |= 0b00000100
	}
	return a
}

func cgramAddress(a byte) byte { return cmdCGRAMAddress | a&0b00111111 }

func ddramAddress(a byte) byte { return cmdDDRAMAddress | a&0b01111111 }
