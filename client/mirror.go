// Package client implements the simulated GPIO client library: a local
// mirror of the broker's register bank, a background sync engine that
// reconciles it every round and synthesizes interrupt callbacks from
// observed input transitions, and the small public API user programs call
// in place of the real hardware driver.
package client

import (
	"sync/atomic"

	"github.com/patrickgold/simpi/register"
)

// mirror is the client's local copy of the register bank.
//
// Each register is a single machine word: the public API and the sync
// engine may race on distinct bit positions of the same word, and
// occasional lost updates are tolerated because the sync engine republishes
// the whole word every round. Implemented with atomic.Uint32 per field so
// that Go's race detector and memory model are satisfied while still
// allowing the relaxed, lock-free discipline of the original library
// ("model each register as an atomic 32-bit word ... relaxed ordering").
//
// Input is the one exception: it is written only by the sync engine, and
// user code only reads it, so a plain atomic load/store suffices there too
// without any cross-field ordering requirement.
type mirror struct {
	input  atomic.Uint32
	output atomic.Uint32
	config atomic.Uint32
	pwm    atomic.Uint32
	inten  atomic.Uint32
	int0   atomic.Uint32
	int1   atomic.Uint32

	minPin uint8
	maxPin uint8

	// isrs is the interrupt handler table, indexed by pin number. Entries
	// are published with atomic.Pointer's release/acquire semantics so
	// that wiringPiISR can publish a callback before setting the
	// corresponding inten bit, guaranteeing the sync engine never observes
	// inten[p]=1 with a nil callback for p.
	isrs [32]atomic.Pointer[func()]
}

func newMirror() *mirror {
	m := &mirror{}
	m.reset()
	return m
}

// reset mirrors register.Bank.Reset: zero every state register except
// config (all-ones), restore default pin bounds. It does not touch the ISR
// table, matching the lifecycle's "setup resets the register mirror"
// contract -- installed callbacks are a property of the user program, not
// of any one register generation.
func (m *mirror) reset() {
	m.input.Store(0)
	m.output.Store(0)
	m.config.Store(0xFFFFFFFF)
	m.pwm.Store(0)
	m.inten.Store(0)
	m.int0.Store(0)
	m.int1.Store(0)
	m.minPin = register.DefaultMinPin
	m.maxPin = register.DefaultMaxPin
}

func (m *mirror) inRange(pin int) bool {
	return pin >= int(m.minPin) && pin <= int(m.maxPin)
}

// snapshot captures the six client-owned registers for the sync engine's
// push round.
type snapshot struct {
	output, config, pwm, inten, int0, int1 uint32
}

func (m *mirror) snapshotOut() snapshot {
	return snapshot{
		output: m.output.Load(),
		config: m.config.Load(),
		pwm:    m.pwm.Load(),
		inten:  m.inten.Load(),
		int0:   m.int0.Load(),
		int1:   m.int1.Load(),
	}
}

// setISR installs fn for pin, replacing any previous callback. Pin is
// assumed to already be validated as in [0, 32).
func (m *mirror) setISR(pin int, fn func()) {
	f := fn
	m.isrs[pin].Store(&f)
}

func (m *mirror) getISR(pin int) func() {
	p := m.isrs[pin].Load()
	if p == nil {
		return nil
	}
	return *p
}
