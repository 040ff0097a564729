package broker

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/patrickgold/simpi/register"
	"github.com/patrickgold/simpi/wire"
)

const textPlain = "text/plain"

func writeMessage(w http.ResponseWriter, m *wire.Message) {
	w.Header().Set("Content-Type", textPlain)
	_, _ = io.WriteString(w, m.Encode())
}

// handleGetPin implements GET /api/getpin/P1;P2;... -- for each decimal
// GPIO number, reads the current driven (Output) level. The pin-addressing
// variant is numeric only; non-numeric or out-of-range identifiers fail with
// PNF.
func (b *Broker) handleGetPin(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("getpin")
	for _, tok := range splitSpec(mux.Vars(r)["spec"]) {
		pin, ok := parsePin(tok)
		b.mu.Lock()
		inRange := ok && b.bank.InRange(pin)
		var level uint8
		if inRange {
			level = register.ReadPin(uint(pin), b.bank.Output)
		}
		b.mu.Unlock()
		if !inRange {
			m.Add(wire.Failf(wire.PinNotFound, tok, "pin not found"))
			continue
		}
		m.Add(wire.Succeed(tok, strconv.Itoa(int(level))))
	}
	writeMessage(w, m)
}

// handleSetPin implements GET /api/setpin/P1=V1;P2=V2;... -- this is how
// the world (the UI) injects input changes: V is "HIGH" or "1" for a high
// level, anything else is low, and it is written to the Input register, not
// Output. This asymmetry with handleGetPin is intentional: setpin simulates
// an external signal arriving on a pin, getpin observes what the simulated
// chip itself is driving.
func (b *Broker) handleSetPin(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("setpin")
	for _, tok := range splitSpec(mux.Vars(r)["spec"]) {
		name, value, hasEq := strings.Cut(tok, "=")
		pin, ok := parsePin(name)
		b.mu.Lock()
		inRange := ok && b.bank.InRange(pin)
		var level uint8
		if inRange && hasEq {
			level = boolToBit(value == "HIGH" || value == "1")
			register.WritePin(uint(pin), level, &b.bank.Input)
		} else if inRange {
			level = register.ReadPin(uint(pin), b.bank.Input)
		}
		b.mu.Unlock()
		if !inRange {
			m.Add(wire.Failf(wire.PinNotFound, name, "pin not found"))
			continue
		}
		m.Add(wire.Succeed(name, strconv.Itoa(int(level))))
	}
	writeMessage(w, m)
}

// handleGetReg implements GET /api/getreg/N1;N2;... -- the canonical,
// preferred register-addressing variant.
func (b *Broker) handleGetReg(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("getreg")
	for _, tok := range splitSpec(mux.Vars(r)["spec"]) {
		name := register.Name(tok)
		b.mu.Lock()
		ptr := b.bank.Get(name)
		var val uint32
		if ptr != nil {
			val = *ptr
		}
		b.mu.Unlock()
		if ptr == nil {
			m.Add(wire.Failf(wire.UnknownReg, tok, "unknown register"))
			continue
		}
		m.Add(wire.Succeed(tok, register.RegToStr(val)))
	}
	writeMessage(w, m)
}

// handleSetReg implements GET /api/setreg/N1=H1;N2=H2;... . Each register in
// the batch is locked and assigned independently, so the batch as a whole is
// not atomic: a concurrent reader can observe some registers updated and
// others not yet.
func (b *Broker) handleSetReg(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("setreg")
	for _, tok := range splitSpec(mux.Vars(r)["spec"]) {
		name, hexVal, _ := strings.Cut(tok, "=")
		b.mu.Lock()
		ptr := b.bank.Get(register.Name(name))
		var parsed uint32
		if ptr != nil {
			parsed = register.StrToReg(hexVal)
			*ptr = parsed
		}
		b.mu.Unlock()
		if ptr == nil {
			m.Add(wire.Failf(wire.UnknownReg, name, "unknown register"))
			continue
		}
		m.Add(wire.Succeed(name, register.RegToStr(parsed)))
	}
	writeMessage(w, m)
}

// handleAction implements GET /api/action/<name>.
func (b *Broker) handleAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m := wire.NewMessage("action")
	switch name {
	case "terminate":
		m.Add(wire.Succeed("terminate", "Exiting..."))
		writeMessage(w, m)
		go b.Close()
		return
	case "reset":
		b.mu.Lock()
		b.bank.Reset()
		b.mu.Unlock()
		m.Add(wire.Succeed("reset", "Reset done."))
	default:
		m.Add(wire.Failf(wire.UnknownAction, name, "Invalid action name."))
	}
	writeMessage(w, m)
}

// handleUnknownAPICall implements the catch-all GET /api/<anything-else>.
func (b *Broker) handleUnknownAPICall(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("api")
	path := strings.TrimPrefix(r.URL.Path, "/api/")
	m.Add(wire.Failf(wire.UnknownAPICall, path, "unrecognized path"))
	writeMessage(w, m)
}

// handlePinsList implements the supplemented GET /api/pins endpoint,
// returning the static 40-pin header descriptor table.
func (b *Broker) handlePinsList(w http.ResponseWriter, r *http.Request) {
	m := wire.NewMessage("pins")
	for _, p := range Header {
		m.Add(wire.Succeed(strconv.Itoa(p.Position), p.Name))
	}
	writeMessage(w, m)
}

// handlePinByName implements the supplemented GET /api/pins/{name}.
func (b *Broker) handlePinByName(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m := wire.NewMessage("pins")
	if p, ok := PinByName(name); ok {
		m.Add(wire.Succeed(name, strconv.Itoa(p.Position)))
	} else {
		m.Add(wire.Failf(wire.PinNotFound, name, "pin not found"))
	}
	writeMessage(w, m)
}

// handleGetPrefs implements GET /api/prefs.
func (b *Broker) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	body, err := readPrefs(b.cfg.PrefsPath)
	if err != nil {
		b.log.WithError(err).Warn("prefs read failed")
		w.Header().Set("Content-Type", textPlain)
		_, _ = io.WriteString(w, wire.Failf(wire.IOError, "prefs", err.Error()).String())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// handlePutPrefs implements PUT /api/prefs.
func (b *Broker) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	m := wire.NewMessage("prefs")
	if err := writePrefs(b.cfg.PrefsPath, r.Body); err != nil {
		b.log.WithError(err).Warn("prefs write failed")
		m.Add(wire.Failf(wire.IOError, "prefs", err.Error()))
		writeMessage(w, m)
		return
	}
	m.Add(wire.Succeed("prefs", "written"))
	writeMessage(w, m)
}

// splitSpec splits a semicolon-delimited path segment into its tokens,
// dropping a single trailing empty token so a URL like "7;" behaves like
// "7".
func splitSpec(spec string) []string {
	parts := strings.Split(spec, ";")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func parsePin(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
