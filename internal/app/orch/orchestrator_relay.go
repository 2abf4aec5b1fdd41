package orch

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/protocol"
)

// catchUp tracks one late joiner waiting for state from the holder.
type catchUp struct {
	sid    core.SessionID
	canvas bool
	chat   bool
}

// ClientReady starts late-joiner catch-up. The earliest member holds the
// canonical state; a sole member is ready at once.
func (o *Orchestrator) ClientReady(sid core.SessionID, roomID domain.RoomID) {
	if !o.Access.IsMember(sid, roomID) {
		return
	}
	holder, _ := o.Registry.Earliest(roomID)
	if core.SessionID(holder.ID) == sid {
		o.send(sid, protocol.ClientLoaded{})
		return
	}
	if !lo.ContainsBy(o.catchUp[roomID], func(c *catchUp) bool { return c.sid == sid }) {
		o.catchUp[roomID] = append(o.catchUp[roomID], &catchUp{sid: sid})
	}
	o.askHolder(core.SessionID(holder.ID), roomID, sid)
}

func (o *Orchestrator) askHolder(holder core.SessionID, roomID domain.RoomID, requester core.SessionID) {
	log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("holder", string(holder)).Str("requester", string(requester)).Msg("requesting state from holder")
	o.send(holder, protocol.GetCanvasState{})
	o.send(holder, protocol.GetChatState{})
}

// ForwardCanvasState relays the holder's snapshot to every requester still
// waiting for a canvas.
func (o *Orchestrator) ForwardCanvasState(sid core.SessionID, p protocol.SendCanvasState) {
	if !o.Access.IsMember(sid, p.RoomID) {
		return
	}
	ev := protocol.CanvasStateFromServer{CanvasState: p.CanvasState}
	waiting := lo.Filter(o.catchUp[p.RoomID], func(c *catchUp, _ int) bool { return !c.canvas && c.sid != sid })
	if len(waiting) == 0 {
		o.sendToLatest(sid, p.RoomID, ev)
		return
	}
	for _, c := range waiting {
		c.canvas = true
		o.send(c.sid, ev)
	}
	o.completeCatchUp(p.RoomID)
}

// ForwardChatState relays the holder's chat history like ForwardCanvasState.
func (o *Orchestrator) ForwardChatState(sid core.SessionID, p protocol.SendChatState) {
	if !o.Access.IsMember(sid, p.RoomID) {
		return
	}
	messages := p.Messages
	if messages == nil {
		messages = domain.ChatHistory{}
	}
	ev := protocol.ChatStateFromServer{Messages: messages}
	waiting := lo.Filter(o.catchUp[p.RoomID], func(c *catchUp, _ int) bool { return !c.chat && c.sid != sid })
	if len(waiting) == 0 {
		o.sendToLatest(sid, p.RoomID, ev)
		return
	}
	for _, c := range waiting {
		c.chat = true
		o.send(c.sid, ev)
	}
	o.completeCatchUp(p.RoomID)
}

func (o *Orchestrator) sendToLatest(sid core.SessionID, roomID domain.RoomID, ev protocol.Outbound) {
	latest, ok := o.Registry.Latest(roomID)
	if !ok || core.SessionID(latest.ID) == sid {
		return
	}
	o.send(core.SessionID(latest.ID), ev)
}

// completeCatchUp marks requesters holding both canvas and chat as loaded.
func (o *Orchestrator) completeCatchUp(roomID domain.RoomID) {
	done, rest := lo.FilterReject(o.catchUp[roomID], func(c *catchUp, _ int) bool { return c.canvas && c.chat })
	for _, c := range done {
		o.send(c.sid, protocol.ClientLoaded{})
	}
	o.setCatchUp(roomID, rest)
}

func (o *Orchestrator) dropCatchUp(roomID domain.RoomID, sid core.SessionID) {
	o.setCatchUp(roomID, lo.Reject(o.catchUp[roomID], func(c *catchUp, _ int) bool { return c.sid == sid }))
}

func (o *Orchestrator) setCatchUp(roomID domain.RoomID, pending []*catchUp) {
	if len(pending) == 0 {
		delete(o.catchUp, roomID)
		return
	}
	o.catchUp[roomID] = pending
}

// reassignCatchUp runs after a departure. Pending requests go to the
// earliest member that is not itself waiting; when every member is waiting
// there is no state left to fetch.
func (o *Orchestrator) reassignCatchUp(roomID domain.RoomID) {
	pending := o.catchUp[roomID]
	if len(pending) == 0 {
		return
	}
	holder, ok := lo.Find(o.Registry.MembersOfRoom(roomID), func(u *domain.User) bool {
		return !lo.ContainsBy(pending, func(c *catchUp) bool { return c.sid == core.SessionID(u.ID) })
	})
	if !ok {
		for _, c := range pending {
			o.send(c.sid, protocol.ClientLoaded{})
		}
		delete(o.catchUp, roomID)
		return
	}
	o.askHolder(core.SessionID(holder.ID), roomID, pending[0].sid)
}

// Draw relays a stroke to the rest of the room.
func (o *Orchestrator) Draw(sid core.SessionID, p protocol.Draw) {
	if !o.mutationAllowed(sid, p.RoomID, p.EventType()) {
		return
	}
	o.broadcast(p.RoomID, sid, protocol.UpdateCanvasState{UserID: domain.UserID(sid), DrawOptions: p.DrawOptions})
}

func (o *Orchestrator) ClearCanvas(sid core.SessionID, roomID domain.RoomID) {
	if !o.mutationAllowed(sid, roomID, protocol.TypeClearCanvas) {
		return
	}
	o.broadcast(roomID, sid, protocol.ClearCanvasBroadcast{UserID: domain.UserID(sid)})
}

// ApplyUndo relays the restored canvas of an undo to the rest of the room.
func (o *Orchestrator) ApplyUndo(sid core.SessionID, p protocol.Undo) {
	if !o.mutationAllowed(sid, p.RoomID, p.EventType()) {
		return
	}
	o.broadcast(p.RoomID, sid, protocol.UndoCanvas{UserID: domain.UserID(sid), CanvasState: p.CanvasState})
}

func (o *Orchestrator) AddUndoPoint(sid core.SessionID, p protocol.AddUndoPoint) {
	if !o.mutationAllowed(sid, p.RoomID, p.EventType()) {
		return
	}
	if err := o.Undo.Push(p.RoomID, p.UndoPoint); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(p.RoomID)).Msg("push undo point")
	}
}

func (o *Orchestrator) DeleteLastUndoPoint(sid core.SessionID, roomID domain.RoomID) {
	if !o.Access.IsMember(sid, roomID) {
		return
	}
	o.Undo.PopLast(roomID)
}

func (o *Orchestrator) GetLastUndoPoint(sid core.SessionID, roomID domain.RoomID) {
	if !o.Access.IsMember(sid, roomID) {
		return
	}
	snapshot, ok, err := o.Undo.PeekLast(roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("read undo point")
		ok = false
	}
	ev := protocol.LastUndoPointFromServer{}
	if ok {
		ev.UndoPoint = &snapshot
	}
	o.send(sid, ev)
}

// SendChatMessage relays chat stamped with the sender's registered identity.
func (o *Orchestrator) SendChatMessage(sid core.SessionID, p protocol.SendChatMessage) {
	u, ok := o.Registry.InRoom(sid, p.RoomID)
	if !ok {
		return
	}
	if err := o.Validate.MessageContent(p.Message.Content); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("chat message rejected")
		return
	}
	msg := p.Message
	msg.UserID = u.ID
	msg.Username = u.Username
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt == "" {
		msg.CreatedAt = o.now().UTC().Format(time.RFC3339Nano)
	}
	o.broadcast(p.RoomID, sid, protocol.ChatMessageFromServer{Message: msg})
}

func (o *Orchestrator) Typing(sid core.SessionID, p protocol.Typing) {
	u, ok := o.Registry.InRoom(sid, p.RoomID)
	if !ok {
		return
	}
	o.broadcast(p.RoomID, sid, protocol.UserTyping{UserID: u.ID, Username: u.Username, IsTyping: p.IsTyping})
}

func (o *Orchestrator) CursorMove(sid core.SessionID, p protocol.CursorMove) {
	u, ok := o.Registry.InRoom(sid, p.RoomID)
	if !ok {
		return
	}
	o.broadcast(p.RoomID, sid, protocol.CursorUpdate{CursorEvent: domain.CursorEvent{
		UserID:   u.ID,
		Username: u.Username,
		X:        p.X,
		Y:        p.Y,
	}})
}

func (o *Orchestrator) PresenceUpdate(sid core.SessionID, p protocol.PresenceUpdate) {
	if !o.Access.IsMember(sid, p.RoomID) {
		return
	}
	if err := p.Status.Valid(); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("presence rejected")
		return
	}
	o.broadcast(p.RoomID, sid, protocol.UserPresence{UserID: domain.UserID(sid), Status: p.Status})
}

func (o *Orchestrator) mutationAllowed(sid core.SessionID, roomID domain.RoomID, ev string) bool {
	if o.Access.IsMutationAllowed(sid, roomID) {
		return true
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("event", ev).Msg("mutation denied")
	return false
}
