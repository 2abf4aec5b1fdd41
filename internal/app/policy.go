package app

import (
	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(sid core.SessionID, ev string) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SessionID, string) BackpressureAction {
	return KickMember
}

// Access holds the permission predicates over the membership and room stores.
type Access struct {
	Registry *Registry
	Rooms    *RoomStore
}

// IsMember reports whether sid belongs to roomID.
func (a Access) IsMember(sid core.SessionID, roomID domain.RoomID) bool {
	_, ok := a.Registry.InRoom(sid, roomID)
	return ok
}

// IsAdmin reports whether sid is the admin of roomID.
func (a Access) IsAdmin(sid core.SessionID, roomID domain.RoomID) bool {
	u, ok := a.Registry.InRoom(sid, roomID)
	return ok && u.IsAdmin()
}

// IsMutationAllowed gates every canvas-mutating intent: members may mutate
// an unlocked canvas, only the admin a locked one.
func (a Access) IsMutationAllowed(sid core.SessionID, roomID domain.RoomID) bool {
	u, ok := a.Registry.InRoom(sid, roomID)
	if !ok {
		return false
	}
	return !a.Rooms.Locked(roomID) || u.IsAdmin()
}
