package signal

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/protocol"
)

// Hub maps live connections by session and implements core.Outbox.
type Hub struct {
	mu    sync.RWMutex
	conns map[core.SessionID]core.SignalConnection
}

var _ core.Outbox = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{conns: make(map[core.SessionID]core.SignalConnection)}
}

func (h *Hub) Register(sid core.SessionID, c core.SignalConnection) {
	h.mu.Lock()
	h.conns[sid] = c
	h.mu.Unlock()
}

func (h *Hub) Unregister(sid core.SessionID) {
	h.mu.Lock()
	delete(h.conns, sid)
	h.mu.Unlock()
}

// Deliver queues ev on the connection of to. Events prepared with
// protocol.Prepare reuse their frame.
func (h *Hub) Deliver(to core.SessionID, ev protocol.Outbound) error {
	h.mu.RLock()
	c, ok := h.conns[to]
	h.mu.RUnlock()
	if !ok {
		return core.ErrClosed
	}
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", ev.EventType()).Msg("encode outbound")
		return err
	}
	return c.TrySend(frame)
}

// Close tears down the connection of sid; its read pump then reports the
// disconnect.
func (h *Hub) Close(sid core.SessionID) {
	h.mu.RLock()
	c, ok := h.conns[sid]
	h.mu.RUnlock()
	if ok {
		c.Close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
