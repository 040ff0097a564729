// Package broker implements the authoritative side of the simulated GPIO
// header: an HTTP service that owns one register.Bank and exposes it
// through the wire protocol, plus a static file fallback for the (external,
// out of scope) web UI.
package broker

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/patrickgold/simpi/register"
)

// Broker owns one register.Bank and serves it over HTTP.
//
// The bank is guarded by a single mutex. Individual register reads and
// assignments are treated as atomic operations, but a batch command (e.g.
// "setreg/a=..;b=..") is deliberately NOT wrapped in one lock acquisition
// across the whole batch: each register in the batch is locked and released
// independently, so a concurrent reader may observe a partial batch. This
// matches the source simulator's intended single-UI usage.
type Broker struct {
	cfg Config
	log *logrus.Logger

	mu   sync.Mutex
	bank *register.Bank

	server   *http.Server
	listener net.Listener

	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a Broker bound to cfg but does not start listening; call
// ListenAndServe to do that.
func New(cfg Config, log *logrus.Logger) *Broker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	b := &Broker{
		cfg:  cfg,
		log:  log,
		bank: register.NewBank(),
		done: make(chan struct{}),
	}
	b.server = &http.Server{Handler: b.newRouter()}
	return b
}

// newRouter wires every API route plus the static fallback, mirroring the
// teacher's newWebServer: specific API routes are registered first, a
// catch-all "unknown API call" route second, and the static file server
// last.
func (b *Broker) newRouter() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/getpin/{spec}", b.handleGetPin).Methods(http.MethodGet)
	api.HandleFunc("/setpin/{spec}", b.handleSetPin).Methods(http.MethodGet)
	api.HandleFunc("/getreg/{spec}", b.handleGetReg).Methods(http.MethodGet)
	api.HandleFunc("/setreg/{spec}", b.handleSetReg).Methods(http.MethodGet)
	api.HandleFunc("/action/{name}", b.handleAction).Methods(http.MethodGet)
	api.HandleFunc("/pins", b.handlePinsList).Methods(http.MethodGet)
	api.HandleFunc("/pins/{name}", b.handlePinByName).Methods(http.MethodGet)
	api.HandleFunc("/prefs", b.handleGetPrefs).Methods(http.MethodGet)
	api.HandleFunc("/prefs", b.handlePutPrefs).Methods(http.MethodPut)
	api.PathPrefix("/").HandlerFunc(b.handleUnknownAPICall)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(b.cfg.StaticDir)))

	if b.cfg.Verbose {
		return b.loggingMiddleware(r)
	}
	return r
}

// ListenAndServe binds the configured address and serves until Close is
// called. It blocks the calling goroutine, matching net/http.Server's usual
// contract; callers that want a non-blocking broker (as cmd/simpi-broker
// does) should run it in its own goroutine.
func (b *Broker) ListenAndServe() error {
	ln, err := net.Listen("tcp", b.cfg.Addr())
	if err != nil {
		return err
	}
	b.listener = ln
	b.log.WithField("addr", ln.Addr().String()).Info("broker listening")
	err = b.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops accepting new connections and drains in-flight requests,
// implementing the "/api/action/terminate" contract's observable effect.
func (b *Broker) Close() error {
	var err error
	b.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = b.server.Shutdown(ctx)
		close(b.done)
	})
	return err
}

// Done returns a channel closed once Close has completed, so callers (e.g.
// main) can wait for a graceful shutdown triggered by the terminate action.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// Bank exposes the underlying register bank for tests and for callers that
// want to inject state directly instead of through HTTP (e.g. the UI this
// module doesn't implement).
func (b *Broker) Bank() *register.Bank {
	return b.bank
}

func (b *Broker) loggingMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		b.log.WithFields(logrus.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rw.status,
			"dur":    time.Since(start),
		}).Info("request")
	})
}

// statusWriter captures the status code written through an
// http.ResponseWriter, the same purpose the teacher's responseWriter serves
// in loghttp.go.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
