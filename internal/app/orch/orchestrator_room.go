package orch

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/protocol"
)

const (
	msgInvalidData      = "Invalid room id or username"
	msgTooManyAttempts  = "Too many attempts, try again later"
	msgRoomNotFound     = "Room not found"
	msgPasswordRequired = "This room is password protected"
	msgInvalidPassword  = "Invalid password"
	msgKicked           = "You were removed from the room by the admin"
)

// CreateRoom joins sid as the first member of a new room, optionally
// setting its password. A room that already has members is joined instead.
// The password is hashed off the loop; the join completes in passwordHashed.
func (o *Orchestrator) CreateRoom(sid core.SessionID, p protocol.CreateRoom) {
	roomID, ok := o.admit(sid, p)
	if !ok {
		return
	}
	if o.Registry.MemberCount(roomID) > 0 {
		o.enter(sid, roomID, p.Username, p.Password)
		return
	}
	pw := deref(p.Password)
	if pw == "" {
		o.leaveCurrent(sid)
		o.join(sid, roomID, p.Username)
		return
	}
	o.offloadFor(sid, func() {
		hash, err := app.HashPassword(pw)
		o.resume(func() { o.passwordHashed(sid, roomID, p.Username, pw, hash, err) })
	})
}

func (o *Orchestrator) passwordHashed(sid core.SessionID, roomID domain.RoomID, username, password, hash string, err error) {
	if !o.settle(sid) {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("hash room password")
		o.send(sid, protocol.InvalidData{Message: msgInvalidData})
		return
	}
	if o.Registry.MemberCount(roomID) > 0 {
		// created by someone else while hashing
		o.enter(sid, roomID, username, &password)
		return
	}
	o.leaveCurrent(sid)
	o.Rooms.SetPasswordHash(roomID, hash)
	o.join(sid, roomID, username)
}

// JoinRoom joins sid to an existing room behind the password gate.
func (o *Orchestrator) JoinRoom(sid core.SessionID, p protocol.JoinRoom) {
	roomID, ok := o.admit(sid, p)
	if !ok {
		return
	}
	o.enter(sid, roomID, p.Username, p.Password)
}

// admit runs the attempt limiter and payload validation. Nothing is mutated
// when it reports false.
func (o *Orchestrator) admit(sid core.SessionID, payload any) (domain.RoomID, bool) {
	if _, busy := o.pending[sid]; busy {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("join ignored, password check in flight")
		return "", false
	}
	if !o.Limiter.Allow(sid) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join attempts exceeded")
		o.send(sid, protocol.InvalidData{Message: msgTooManyAttempts})
		return "", false
	}
	if err := o.Validate.Struct(payload); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("invalid join payload")
		o.send(sid, protocol.InvalidData{Message: msgInvalidData})
		return "", false
	}
	var raw string
	switch p := payload.(type) {
	case protocol.CreateRoom:
		raw = p.RoomID
	case protocol.JoinRoom:
		raw = p.RoomID
	}
	roomID, err := domain.ParseRoomID(raw)
	if err != nil {
		o.send(sid, protocol.InvalidData{Message: msgInvalidData})
		return "", false
	}
	return roomID, true
}

func (o *Orchestrator) enter(sid core.SessionID, roomID domain.RoomID, username string, password *string) {
	if u, ok := o.Registry.InRoom(sid, roomID); ok {
		o.send(sid, o.joinedAck(u))
		return
	}
	if o.Registry.MemberCount(roomID) == 0 {
		o.send(sid, protocol.RoomNotFound{Message: msgRoomNotFound})
		return
	}
	if hash, ok := o.Rooms.PasswordHash(roomID); ok {
		pw := deref(password)
		if pw == "" {
			o.send(sid, protocol.PasswordRequired{Message: msgPasswordRequired})
			return
		}
		o.offloadFor(sid, func() {
			match, err := app.ComparePassword(pw, hash)
			o.resume(func() { o.passwordChecked(sid, roomID, username, pw, hash, match, err) })
		})
		return
	}
	o.leaveCurrent(sid)
	o.join(sid, roomID, username)
}

func (o *Orchestrator) passwordChecked(sid core.SessionID, roomID domain.RoomID, username, password, hash string, match bool, err error) {
	if !o.settle(sid) {
		return
	}
	if cur, ok := o.Rooms.PasswordHash(roomID); !ok || cur != hash {
		// the room was purged or recreated while comparing
		o.enter(sid, roomID, username, &password)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("compare room password")
	}
	if !match {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("invalid password")
		o.send(sid, protocol.InvalidPassword{Message: msgInvalidPassword})
		return
	}
	o.leaveCurrent(sid)
	o.join(sid, roomID, username)
}

// offloadFor runs a password job for sid on the hash workers. A full queue
// is answered like an exhausted limiter.
func (o *Orchestrator) offloadFor(sid core.SessionID, job func()) {
	if !o.offload(job) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("password queue full")
		o.send(sid, protocol.InvalidData{Message: msgTooManyAttempts})
		return
	}
	o.pending[sid] = struct{}{}
}

// settle clears the in-flight mark of sid. False means the connection went
// away and the result must be dropped.
func (o *Orchestrator) settle(sid core.SessionID) bool {
	if _, ok := o.pending[sid]; !ok {
		return false
	}
	delete(o.pending, sid)
	return true
}

func (o *Orchestrator) join(sid core.SessionID, roomID domain.RoomID, username string) {
	role := domain.RoleMember
	if o.Registry.MemberCount(roomID) == 0 {
		role = domain.RoleAdmin
	}
	u, err := o.Registry.Add(sid, roomID, username, role)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("register user")
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("role", string(role)).Msg("joined room")

	o.send(sid, o.joinedAck(u))
	o.broadcast(roomID, sid, protocol.UpdateMembers{Members: o.Registry.Members(roomID)})
	o.broadcast(roomID, sid, protocol.SendNotification{
		Title:   "New member joined",
		Message: fmt.Sprintf("%s joined the room!", username),
	})
	o.broadcast(roomID, sid, o.systemMessage(fmt.Sprintf("%s joined the room", username)))
}

func (o *Orchestrator) joinedAck(u *domain.User) protocol.RoomJoined {
	return protocol.RoomJoined{
		User:         u.Member(),
		RoomID:       u.RoomID,
		Members:      o.Registry.Members(u.RoomID),
		CanvasLocked: o.Rooms.Locked(u.RoomID),
	}
}

func (o *Orchestrator) leaveCurrent(sid core.SessionID) {
	if u, ok := o.Registry.Get(sid); ok {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(u.RoomID)).Msg("leaving previous room")
		o.Leave(sid)
	}
}

// Leave removes sid from its room. A connection without a user is a no-op.
func (o *Orchestrator) Leave(sid core.SessionID) {
	u, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	roomID := u.RoomID
	holder, _ := o.Registry.Earliest(roomID)
	wasHolder := holder.ID == u.ID
	o.Registry.Remove(sid)
	o.dropCatchUp(roomID, sid)

	if o.Registry.MemberCount(roomID) == 0 {
		o.purge(roomID)
		return
	}

	if _, ok := o.Registry.Admin(roomID); !ok {
		promoted, _ := o.Registry.PromoteEarliest(roomID)
		o.broadcast(roomID, "", protocol.UpdateMembers{Members: o.Registry.Members(roomID)})
		o.send(core.SessionID(promoted.ID), protocol.RoleChanged{Role: domain.RoleAdmin})
		o.broadcast(roomID, "", o.systemMessage(fmt.Sprintf("%s is now the admin", promoted.Username)))
	} else {
		o.broadcast(roomID, "", protocol.UpdateMembers{Members: o.Registry.Members(roomID)})
	}
	o.broadcast(roomID, "", protocol.SendNotification{
		Title:   "Member departure",
		Message: fmt.Sprintf("%s left your room", u.Username),
	})
	o.broadcast(roomID, "", o.systemMessage(fmt.Sprintf("%s left the room", u.Username)))
	o.broadcast(roomID, "", protocol.CursorLeave{UserID: u.ID})
	if wasHolder {
		o.reassignCatchUp(roomID)
	}
}

// OnDisconnect runs leave and forgets per-connection state.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Limiter.Forget(sid)
	delete(o.pending, sid)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

func (o *Orchestrator) purge(roomID domain.RoomID) {
	o.Rooms.Purge(roomID)
	o.Undo.Purge(roomID)
	delete(o.catchUp, roomID)
	log.Info().Str("module", "orch").Str("room", string(roomID)).Msg("room emptied and purged")
}

// Kick removes target from roomID on behalf of its admin.
func (o *Orchestrator) Kick(sid core.SessionID, target domain.UserID, roomID domain.RoomID) {
	if !o.Access.IsAdmin(sid, roomID) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("kick denied")
		return
	}
	tsid := core.SessionID(target)
	if tsid == sid || !o.Access.IsMember(tsid, roomID) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Msg("kick target not in room")
		return
	}
	o.send(tsid, protocol.Kicked{RoomID: roomID, Reason: msgKicked})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Str("room", string(roomID)).Msg("member kicked")
	o.Leave(tsid)
}

// Promote hands the admin role from sid to target.
func (o *Orchestrator) Promote(sid core.SessionID, target domain.UserID, roomID domain.RoomID) {
	if !o.Access.IsAdmin(sid, roomID) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("promote denied")
		return
	}
	tsid := core.SessionID(target)
	if tsid == sid {
		return
	}
	if err := o.Registry.TransferAdmin(sid, tsid); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("target", string(target)).Msg("promote target not in room")
		return
	}
	promoted, _ := o.Registry.Get(tsid)
	o.send(tsid, protocol.RoleChanged{Role: domain.RoleAdmin})
	o.send(sid, protocol.RoleChanged{Role: domain.RoleMember})
	o.broadcast(roomID, "", protocol.UpdateMembers{Members: o.Registry.Members(roomID)})
	o.broadcast(roomID, "", o.systemMessage(fmt.Sprintf("%s is now the admin", promoted.Username)))
}

// ToggleLock flips the canvas lock of roomID. Admin only.
func (o *Orchestrator) ToggleLock(sid core.SessionID, roomID domain.RoomID) {
	if !o.Access.IsAdmin(sid, roomID) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("lock toggle denied")
		return
	}
	locked := o.Rooms.ToggleLock(roomID)
	log.Info().Str("module", "orch").Str("room", string(roomID)).Bool("locked", locked).Msg("canvas lock changed")
	o.broadcast(roomID, "", protocol.LockChanged{Locked: locked})
	content := "The canvas is now unlocked"
	if locked {
		content = "The canvas is now locked by the admin"
	}
	o.broadcast(roomID, "", o.systemMessage(content))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
