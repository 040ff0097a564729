package client

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/patrickgold/simpi/register"
)

// syncEngine runs the background reconciliation loop: one round pulls the
// input register, detects edges against a consistent old/new snapshot,
// fires any matching callbacks in ascending pin order, then pushes the
// client-owned registers back to the broker.
type syncEngine struct {
	mirror    *mirror
	transport requester
	log       *logrus.Logger
	stop      chan struct{}
	done      chan struct{}
}

func newSyncEngine(m *mirror, t requester, log *logrus.Logger) *syncEngine {
	return &syncEngine{
		mirror:    m,
		transport: t,
		log:       log,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// run is the sync thread's entry point. It loops until stop is closed,
// polling the flag between rounds -- there is no sleep, pacing comes
// entirely from the request round trip.
func (e *syncEngine) run() {
	defer close(e.done)
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		e.round()
	}
}

// requestStop signals the loop to exit after its current round and blocks
// until it has.
func (e *syncEngine) requestStop() {
	close(e.stop)
	<-e.done
}

// round performs exactly one pull/detect/push cycle.
func (e *syncEngine) round() {
	prevInput := e.pull()
	e.detectEdges(prevInput)
	e.push()
}

// pull fetches the broker's input register, updates the mirror, and
// returns the value the mirror held immediately before the update so the
// caller can diff old vs. new with a consistent snapshot.
func (e *syncEngine) pull() uint32 {
	resp := e.transport.Get("getreg/input")
	prev := e.mirror.input.Load()
	newVal := prev
	found := false
	for _, r := range resp.Records {
		if r.Key != "input" {
			continue
		}
		if r.OK() {
			newVal = register.StrToReg(r.Value)
			found = true
		} else if e.log != nil {
			e.log.WithField("code", r.Code).Warn("simpi: getreg/input failed, keeping last known value")
		}
	}
	if !found && len(resp.Records) == 0 && e.log != nil {
		e.log.Warn("simpi: getreg/input returned no records, keeping last known value")
	}
	e.mirror.input.Store(newVal)
	return prev
}

// detectEdges walks every pin in range in ascending order and fires any
// configured, matching interrupt callback exactly once. TriggerLow (the
// "low level" selector) is reserved and never synthesized here -- a level
// trigger has no clean edge-detection analog and nothing in this library
// depends on it firing.
func (e *syncEngine) detectEdges(prevInput uint32) {
	newInput := e.mirror.input.Load()
	inten := e.mirror.inten.Load()
	min, max := int(e.mirror.minPin), int(e.mirror.maxPin)
	for p := min; p <= max; p++ {
		if register.ReadPin(uint(p), inten) == 0 {
			continue
		}
		fn := e.mirror.getISR(p)
		if fn == nil {
			continue
		}
		oldBit := register.ReadPin(uint(p), prevInput)
		newBit := register.ReadPin(uint(p), newInput)
		sel := e.selector(p)
		if edgeMatches(sel, oldBit, newBit) {
			fn()
		}
	}
}

func (e *syncEngine) selector(pin int) register.EdgeSelector {
	int1 := register.ReadPin(uint(pin), e.mirror.int1.Load())
	int0 := register.ReadPin(uint(pin), e.mirror.int0.Load())
	return register.EdgeSelector(int1<<1 | int0)
}

// edgeMatches implements the (selector, transition) truth table for the
// four trigger kinds. TriggerLow never matches: it is defined by the
// register encoding but not synthesized by this client.
func edgeMatches(sel register.EdgeSelector, oldBit, newBit uint8) bool {
	switch sel {
	case register.TriggerRising:
		return oldBit == 0 && newBit == 1
	case register.TriggerFalling:
		return oldBit == 1 && newBit == 0
	case register.TriggerChange:
		return oldBit != newBit
	default: // TriggerLow: reserved, not synthesized.
		return false
	}
}

// push publishes the client-owned registers to the broker in one batch
// request. This keeps pull and push as two separate round trips, matching
// the original client's structure, rather than folding them into a single
// combined verb the broker's HTTP surface doesn't define.
func (e *syncEngine) push() {
	s := e.mirror.snapshotOut()
	path := fmt.Sprintf(
		"setreg/output=%s;config=%s;pwm=%s;inten=%s;int0=%s;int1=%s",
		register.RegToStr(s.output),
		register.RegToStr(s.config),
		register.RegToStr(s.pwm),
		register.RegToStr(s.inten),
		register.RegToStr(s.int0),
		register.RegToStr(s.int1),
	)
	resp := e.transport.Get(path)
	if e.log == nil {
		return
	}
	for _, r := range resp.Records {
		if !r.OK() {
			e.log.WithFields(logrus.Fields{"key": r.Key, "code": r.Code}).
				Warn("simpi: push round rejected a register write")
		}
	}
}
