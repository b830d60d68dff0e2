package multiplayer

import (
	"time"

	"github.com/vovakirdan/tui-snek/internal/transport"
)

// Peer is the byte-stream end of one connection, as seen by a session.
// It allows the server and client to be driven without sockets.
type Peer interface {
	// SendRaw queues bytes for writing. Must not block.
	SendRaw(b []byte) error

	// Buffered returns received bytes not yet consumed.
	Buffered() []byte

	// Consume drops the first n buffered bytes.
	Consume(n int)

	Close() error
	RemoteAddr() string
}

var _ Peer = (*transport.Conn)(nil)

// EventSource yields connection activity. Implemented by transport.Hub.
type EventSource interface {
	Poll(timeout time.Duration) []transport.Event
}

var _ EventSource = (*transport.Hub)(nil)
