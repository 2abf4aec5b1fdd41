// Package orch serializes every inbound intent through one dispatch loop.
// Handlers run to completion, so the stores they touch need no locks.
package orch

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/protocol"
)

var ErrStopped = errors.New("dispatch loop stopped")

type Config struct {
	InboxSize       int
	JoinMaxAttempts int
	JoinWindow      time.Duration
	// HashWorkers bounds concurrent password hashing across all connections.
	HashWorkers int
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomStore
	Undo     *app.UndoLedger
	Access   app.Access
	Policy   app.Policy
	Limiter  *app.AttemptLimiter
	Validate *app.Validator
	Outbox   core.Outbox

	catchUp map[domain.RoomID][]*catchUp
	inbox   chan command
	done    chan struct{}
	now     func() time.Time

	// offload hands slow work to the hash workers; false means the queue is full.
	offload func(job func()) bool
	jobs    chan func()
	workers int
	// pending holds connections with a password job in flight.
	pending map[core.SessionID]struct{}
}

// command is either an intent from a connection or a closure that must run
// on the loop (stats queries, continuations of offloaded work).
type command struct {
	sid core.SessionID
	in  protocol.Inbound
	fn  func()
}

func New(outbox core.Outbox, undo *app.UndoLedger, cfg Config) *Orchestrator {
	reg := app.NewRegistry()
	rooms := app.NewRoomStore()
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	if cfg.HashWorkers <= 0 {
		cfg.HashWorkers = runtime.NumCPU()
	}
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Undo:     undo,
		Access:   app.Access{Registry: reg, Rooms: rooms},
		Policy:   app.SimplePolicy{},
		Limiter:  app.NewAttemptLimiter(cfg.JoinMaxAttempts, cfg.JoinWindow),
		Validate: app.NewValidator(),
		Outbox:   outbox,
		catchUp:  make(map[domain.RoomID][]*catchUp),
		inbox:    make(chan command, cfg.InboxSize),
		done:     make(chan struct{}),
		now:      time.Now,
		jobs:     make(chan func(), cfg.HashWorkers*8),
		workers:  cfg.HashWorkers,
		pending:  make(map[core.SessionID]struct{}),
	}
	o.offload = o.enqueueJob
	return o
}

// Run is the single writer. It returns when ctx is done; Submit and Stats
// fail with ErrStopped afterwards.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	for range o.workers {
		go o.hashWorker(ctx)
	}
	log.Info().Str("module", "orch").Int("hash_workers", o.workers).Msg("dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("dispatch loop stopped")
			return ctx.Err()
		case cmd := <-o.inbox:
			o.execute(cmd)
		}
	}
}

func (o *Orchestrator) execute(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			ev := ""
			if cmd.in != nil {
				ev = cmd.in.EventType()
			}
			log.Error().Str("module", "orch").Str("sid", string(cmd.sid)).Str("event", ev).Interface("panic", r).Msg("handler panic")
		}
	}()
	if cmd.fn != nil {
		cmd.fn()
		return
	}
	o.Handle(cmd.sid, cmd.in)
}

func (o *Orchestrator) hashWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.jobs:
			job()
		}
	}
}

func (o *Orchestrator) enqueueJob(job func()) bool {
	select {
	case o.jobs <- job:
		return true
	default:
		return false
	}
}

// resume hands the result of offloaded work back to the loop.
func (o *Orchestrator) resume(fn func()) {
	select {
	case o.inbox <- command{fn: fn}:
	case <-o.done:
	}
}

func (o *Orchestrator) stopped() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Submit queues an intent from sid for the dispatch loop.
func (o *Orchestrator) Submit(ctx context.Context, sid core.SessionID, in protocol.Inbound) error {
	if o.stopped() {
		return ErrStopped
	}
	select {
	case o.inbox <- command{sid: sid, in: in}:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Stats struct {
	Rooms []app.RoomInfo `json:"rooms"`
	Users int            `json:"users"`
}

// Stats is answered from inside the loop so it never races a handler.
func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	if o.stopped() {
		return Stats{}, ErrStopped
	}
	reply := make(chan Stats, 1)
	cmd := command{fn: func() {
		reply <- Stats{Rooms: o.Registry.Rooms(), Users: o.Registry.UserCount()}
	}}
	select {
	case o.inbox <- cmd:
	case <-o.done:
		return Stats{}, ErrStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-o.done:
		return Stats{}, ErrStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Handle runs one intent to completion. Callers outside the loop must use Submit.
func (o *Orchestrator) Handle(sid core.SessionID, in protocol.Inbound) {
	switch ev := in.(type) {
	case protocol.CreateRoom:
		o.CreateRoom(sid, ev)
	case protocol.JoinRoom:
		o.JoinRoom(sid, ev)
	case protocol.LeaveRoom:
		o.Leave(sid)
	case protocol.Disconnect:
		o.OnDisconnect(sid)
	case protocol.KickUser:
		o.Kick(sid, ev.UserID, ev.RoomID)
	case protocol.PromoteUser:
		o.Promote(sid, ev.UserID, ev.RoomID)
	case protocol.ToggleCanvasLock:
		o.ToggleLock(sid, ev.RoomID)
	case protocol.ClientReady:
		o.ClientReady(sid, ev.RoomID)
	case protocol.SendCanvasState:
		o.ForwardCanvasState(sid, ev)
	case protocol.SendChatState:
		o.ForwardChatState(sid, ev)
	case protocol.Draw:
		o.Draw(sid, ev)
	case protocol.ClearCanvas:
		o.ClearCanvas(sid, ev.RoomID)
	case protocol.Undo:
		o.ApplyUndo(sid, ev)
	case protocol.AddUndoPoint:
		o.AddUndoPoint(sid, ev)
	case protocol.DeleteLastUndoPoint:
		o.DeleteLastUndoPoint(sid, ev.RoomID)
	case protocol.GetLastUndoPoint:
		o.GetLastUndoPoint(sid, ev.RoomID)
	case protocol.SendChatMessage:
		o.SendChatMessage(sid, ev)
	case protocol.Typing:
		o.Typing(sid, ev)
	case protocol.CursorMove:
		o.CursorMove(sid, ev)
	case protocol.PresenceUpdate:
		o.PresenceUpdate(sid, ev)
	case protocol.Ping:
		o.send(sid, protocol.Pong{})
	default:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msgf("unhandled intent %T", in)
	}
}

func (o *Orchestrator) send(to core.SessionID, ev protocol.Outbound) {
	if err := o.Outbox.Deliver(to, ev); err != nil {
		o.onDeliveryFailure(to, ev, err)
	}
}

// broadcast delivers ev to every member of roomID except skip (may be empty).
// The frame is rendered once for all recipients.
func (o *Orchestrator) broadcast(roomID domain.RoomID, skip core.SessionID, ev protocol.Outbound) core.PublishResult {
	res := core.PublishResult{}
	enc, err := protocol.Prepare(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Str("event", ev.EventType()).Msg("encode broadcast")
		return res
	}
	for _, u := range o.Registry.MembersOfRoom(roomID) {
		sid := core.SessionID(u.ID)
		if sid == skip {
			continue
		}
		if err := o.Outbox.Deliver(sid, enc); err != nil {
			o.onDeliveryFailure(sid, ev, err)
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("event", ev.EventType()).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (o *Orchestrator) onDeliveryFailure(sid core.SessionID, ev protocol.Outbound, err error) {
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", ev.EventType()).Msg("delivery failed")
		return
	}
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(sid, ev.EventType()) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", ev.EventType()).Msg("slow connection, closing")
		o.Outbox.Close(sid)
	case app.MarkSlow, app.DropFrame, app.NoAction:
	}
}

func (o *Orchestrator) systemMessage(content string) protocol.SystemMessageFromServer {
	return protocol.SystemMessageFromServer{SystemMessage: domain.NewSystemMessage(content, o.now())}
}
