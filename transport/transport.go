// Package transport implements the client side of the wire protocol: a
// one-shot HTTP/1.1 GET over a fresh TCP connection per call, exactly as the
// original wiringPiSim client did it, translated idiomatically into Go.
//
// Every exported call is total: a socket failure never panics or returns a
// Go error to the sync engine, it logs to the configured logger and yields
// a synthetic FAIL record instead. This keeps the client's public API usable
// even while the broker is unreachable.
package transport

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/patrickgold/simpi/wire"
)

// DefaultHost and DefaultPort are the client's compile-time broker address,
// matching the broker's own default bind address.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 32000
)

// bufSize is the fixed receive buffer size used by the original client.
const bufSize = 1024

// Client issues one-shot API GET requests against a broker.
type Client struct {
	addr    string
	dialer  net.Dialer
	timeout time.Duration
	log     *logrus.Logger
}

// New returns a Client targeting host:port with a 2 second per-call
// deadline covering the dial and the read/write of the exchange.
func New(host string, port int, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		addr:    fmt.Sprintf("%s:%d", host, port),
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Get performs GET /api/<path> against the broker and parses the response
// body with the wire codec. On any socket-level failure it logs the error
// and returns a message holding a single synthetic FAIL record, matching
// the original client's pre-initialized failure struct.
func (c *Client) Get(path string) *wire.Message {
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout())
	if err != nil {
		c.log.WithError(err).Error("simpi: failed to connect to broker")
		return failMessage()
	}
	defer conn.Close()

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	if c.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	req := fmt.Sprintf(
		"GET /api/%s HTTP/1.1\r\nHost: %s\r\nAccept: text/*\r\nContent-Length: 0\r\nConnection: close\r\n\r\n",
		path, c.addr,
	)
	if _, err := conn.Write([]byte(req)); err != nil {
		c.log.WithError(err).Error("simpi: write() to broker socket failed")
		return failMessage()
	}

	raw := recvUntilClose(conn)

	idx := strings.Index(raw, "\r\n\r\n")
	if idx < 0 {
		c.log.Error("simpi: no valid HTTP response from broker")
		return failMessage()
	}
	return wire.Parse(raw[idx+4:])
}

func (c *Client) dialTimeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return 2 * time.Second
}

// recvUntilClose reads into a fixed bufSize buffer until the peer closes the
// connection or the buffer is full, mirroring the original's __recv loop.
// Go's bufio.Reader makes the byte-at-a-time framing unnecessary for
// correctness, so it reads in chunks, but the fixed upper bound on a single
// response is preserved since the protocol never sends more than a few
// hundred bytes per call.
func recvUntilClose(conn net.Conn) string {
	r := bufio.NewReaderSize(conn, bufSize)
	buf := make([]byte, bufSize)
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			break
		}
	}
	return string(buf[:total])
}

func failMessage() *wire.Message {
	m := wire.NewMessage("")
	m.Add(wire.Record{Status: wire.Fail})
	return m
}
