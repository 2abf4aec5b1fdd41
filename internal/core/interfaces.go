//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
package core

import (
	"errors"

	"github.com/dkeye/Sketch/internal/protocol"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Frame is a raw encoded payload ready for the wire.
type Frame []byte

// SessionID identifies one open transport connection. It doubles as the
// user id once the connection has joined a room.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Outbox is how the coordinator reaches connections. Deliver must not block;
// a full queue is reported as ErrBackpressure. Close tears the connection
// down, after which the transport reports a disconnect.
type Outbox interface {
	Deliver(to SessionID, ev protocol.Outbound) error
	Close(sid SessionID)
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}
