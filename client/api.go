package client

import (
	"sync/atomic"

	"github.com/patrickgold/simpi/register"
)

// atomicWord is the register.Bank field type mirrored per-register: a
// lock-free 32-bit word.
type atomicWord = atomic.Uint32

// Mode selects a pin's direction, mirroring wiringPi's pinMode constants.
type Mode int

// The pin modes recognized by PinMode.
const (
	Input Mode = iota
	Output
	PWMOutput
)

// Level is a digital pin level.
type Level int

// The two digital levels, plus the sentinel DigitalRead returns for an
// out-of-range pin.
const (
	Low       Level = 0
	High      Level = 1
	Undefined Level = -1
)

// ISREdge selects which transition(s) should fire an interrupt callback,
// mirroring wiringPi's INT_EDGE_* constants.
type ISREdge int

// The four edge-trigger modes WiringPiISR accepts.
const (
	ISRSetup ISREdge = iota
	ISRFalling
	ISRRising
	ISRBoth
)

// PinMode configures pin as Input, Output or PWMOutput. Out-of-range pins
// are silently ignored, matching the original library's tolerance for a
// caller passing a bad pin number.
func (c *Client) PinMode(pin int, mode Mode) {
	if !c.mirror.inRange(pin) {
		return
	}
	switch mode {
	case Input:
		setBit(&c.mirror.config, uint(pin), true)
		setBit(&c.mirror.pwm, uint(pin), false)
	case PWMOutput:
		setBit(&c.mirror.config, uint(pin), false)
		setBit(&c.mirror.pwm, uint(pin), true)
	default: // Output
		setBit(&c.mirror.config, uint(pin), false)
		setBit(&c.mirror.pwm, uint(pin), false)
	}
}

// DigitalWrite sets pin's driven level. Ignored out of range.
func (c *Client) DigitalWrite(pin int, level Level) {
	if !c.mirror.inRange(pin) {
		return
	}
	setBit(&c.mirror.output, uint(pin), level == High)
}

// DigitalRead returns pin's last-observed input level, or Undefined (-1)
// if pin is out of range.
func (c *Client) DigitalRead(pin int) Level {
	if !c.mirror.inRange(pin) {
		return Undefined
	}
	if register.ReadPin(uint(pin), c.mirror.input.Load()) != 0 {
		return High
	}
	return Low
}

// WiringPiISR installs fn as pin's interrupt handler and arms inten/int0/
// int1 for the given edge. It always returns 0, matching wiringPi's
// historical (and otherwise unused) return convention.
//
// The callback is published to the ISR table before the inten bit is set:
// the sync engine must never observe inten[pin]=1 paired with a nil
// callback slot.
func (c *Client) WiringPiISR(pin int, edge ISREdge, fn func()) int {
	if !c.mirror.inRange(pin) || pin < 0 || pin >= len(c.mirror.isrs) {
		return 0
	}
	c.mirror.setISR(pin, fn)

	var int1, int0 uint8
	switch edge {
	case ISRRising:
		int1, int0 = 1, 1
	case ISRFalling:
		int1, int0 = 1, 0
	case ISRBoth:
		int1, int0 = 0, 1
	case ISRSetup:
		int1, int0 = 0, 0
	}
	setBit(&c.mirror.int1, uint(pin), int1 != 0)
	setBit(&c.mirror.int0, uint(pin), int0 != 0)
	setBit(&c.mirror.inten, uint(pin), true)
	return 0
}

// setBit performs a read-modify-write on an atomic.Uint32 register word,
// the Go analog of the original's unsynchronized write_pin(). It retries
// with compare-and-swap, so concurrent callers touching distinct bits of
// the same word do not overwrite each other's updates.
func setBit(word *atomicWord, bit uint, v bool) {
	for {
		old := word.Load()
		n := old
		register.WritePin(bit, boolBit(v), &n)
		if word.CompareAndSwap(old, n) {
			return
		}
	}
}

func boolBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
