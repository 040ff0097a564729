package client

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/patrickgold/simpi/transport"
)

// state is the client lifecycle state machine:
//
//	UNINITIALIZED --Setup--> RUNNING --exit hook--> STOPPING --join--> TERMINATED
type state int32

const (
	stateUninitialized state = iota
	stateRunning
	stateStopping
	stateTerminated
)

// Client is one simulated GPIO client: a register mirror, a background sync
// engine, and the timebase Millis/Micros are measured from. Exactly one
// sync goroutine runs per Client during its active lifetime.
type Client struct {
	mirror    *mirror
	transport requester
	sync      *syncEngine
	log       *logrus.Logger

	state     atomic.Int32
	startTime time.Time

	signals chan os.Signal
}

// defaultClient and its guard mutex back the package-level functions
// (Setup, PinMode, ...) that mimic the original library's global,
// process-wide API. Most callers should use these instead of constructing
// a Client directly; New is exposed for tests and for programs that want
// more than one independent simulated client in the same process.
var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// New constructs a Client targeting host:port, in the UNINITIALIZED state.
// Call Setup to bring it to RUNNING.
func New(host string, port int, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		mirror:    newMirror(),
		transport: transport.New(host, port, log),
		log:       log,
	}
	c.state.Store(int32(stateUninitialized))
	return c
}

// Setup initializes the timebase, resets the register mirror, starts the
// sync engine goroutine, and arms a process-exit hook (SIGINT/SIGTERM) that
// tears the client down gracefully. Re-entering Setup from any state other
// than UNINITIALIZED is a no-op: it leaves the already-running client alone
// rather than risk starting a second sync goroutine over the same mirror.
func (c *Client) Setup() {
	if !c.state.CompareAndSwap(int32(stateUninitialized), int32(stateRunning)) {
		return
	}
	c.startTime = time.Now()
	c.mirror.reset()
	c.sync = newSyncEngine(c.mirror, c.transport, c.log)
	go c.sync.run()

	c.signals = make(chan os.Signal, 1)
	signal.Notify(c.signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-c.signals; ok {
			c.Close()
		}
	}()
}

// Close signals the sync engine to stop, joins it (bounded to 1 second, the
// same deadline the original's timed thread-join used on platforms that
// support it), and transitions to TERMINATED. Safe to call more than once.
func (c *Client) Close() {
	if !c.state.CompareAndSwap(int32(stateRunning), int32(stateStopping)) {
		return
	}
	signal.Stop(c.signals)

	joined := make(chan struct{})
	go func() {
		c.sync.requestStop()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(1 * time.Second):
		c.log.Warn("simpi: sync engine did not stop within 1s")
	}

	c.state.Store(int32(stateTerminated))
}

// Millis returns milliseconds elapsed since Setup.
func (c *Client) Millis() uint32 {
	return uint32(time.Since(c.startTime).Milliseconds())
}

// Micros returns microseconds elapsed since Setup.
func (c *Client) Micros() uint32 {
	return uint32(time.Since(c.startTime).Microseconds())
}

// Delay blocks the calling goroutine for approximately ms milliseconds.
func (c *Client) Delay(ms uint) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayMicroseconds blocks the calling goroutine for approximately us
// microseconds.
func (c *Client) DelayMicroseconds(us uint) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// Default returns the process-wide client used by the package-level
// functions, constructing and calling Setup on it if this is the first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(transport.DefaultHost, transport.DefaultPort, nil)
		defaultClient.Setup()
	}
	return defaultClient
}

// Setup initializes the default process-wide client, mirroring wiringPi's
// wiringPiSetupGpio.
func Setup() *Client { return Default() }

// PinMode delegates to the default client.
func PinMode(pin int, mode Mode) { Default().PinMode(pin, mode) }

// DigitalWrite delegates to the default client.
func DigitalWrite(pin int, level Level) { Default().DigitalWrite(pin, level) }

// DigitalRead delegates to the default client.
func DigitalRead(pin int) Level { return Default().DigitalRead(pin) }

// WiringPiISR delegates to the default client.
func WiringPiISR(pin int, edge ISREdge, fn func()) int { return Default().WiringPiISR(pin, edge, fn) }

// Delay delegates to the default client.
func Delay(ms uint) { Default().Delay(ms) }

// DelayMicroseconds delegates to the default client.
func DelayMicroseconds(us uint) { Default().DelayMicroseconds(us) }

// Millis delegates to the default client.
func Millis() uint32 { return Default().Millis() }

// Micros delegates to the default client.
func Micros() uint32 { return Default().Micros() }
