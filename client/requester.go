package client

import "github.com/patrickgold/simpi/wire"

// requester is the subset of transport.Client the sync engine needs. It
// exists so tests can substitute a fake broker without opening real
// sockets.
type requester interface {
	Get(path string) *wire.Message
}
