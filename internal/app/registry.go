package app

import (
	"cmp"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/domain"
)

var (
	ErrAlreadyMember = errors.New("connection already has a user")
	ErrNotMember     = errors.New("connection is not a member of the room")
)

// Registry is the membership store: connection -> user, plus per-room join
// order. It is owned by the orchestrator loop and is not safe for
// concurrent use.
type Registry struct {
	users map[core.SessionID]*domain.User
	rooms map[domain.RoomID][]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[core.SessionID]*domain.User),
		rooms: make(map[domain.RoomID][]core.SessionID),
	}
}

func (r *Registry) Add(sid core.SessionID, roomID domain.RoomID, username string, role domain.Role) (*domain.User, error) {
	if _, ok := r.users[sid]; ok {
		return nil, ErrAlreadyMember
	}
	u := &domain.User{
		ID:       domain.UserID(sid),
		Username: username,
		RoomID:   roomID,
		Role:     role,
	}
	r.users[sid] = u
	r.rooms[roomID] = append(r.rooms[roomID], sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Str("role", string(role)).Msg("user added")
	return u, nil
}

func (r *Registry) Get(sid core.SessionID) (*domain.User, bool) {
	u, ok := r.users[sid]
	return u, ok
}

// Remove drops the user of sid. The second result is false when the
// connection had no user.
func (r *Registry) Remove(sid core.SessionID) (*domain.User, bool) {
	u, ok := r.users[sid]
	if !ok {
		return nil, false
	}
	delete(r.users, sid)
	order := slices.DeleteFunc(r.rooms[u.RoomID], func(s core.SessionID) bool { return s == sid })
	if len(order) == 0 {
		delete(r.rooms, u.RoomID)
	} else {
		r.rooms[u.RoomID] = order
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(u.RoomID)).Msg("user removed")
	return u, true
}

// MembersOfRoom returns users in join order, earliest first.
func (r *Registry) MembersOfRoom(roomID domain.RoomID) []*domain.User {
	return lo.Map(r.rooms[roomID], func(sid core.SessionID, _ int) *domain.User {
		return r.users[sid]
	})
}

func (r *Registry) Members(roomID domain.RoomID) []domain.Member {
	return lo.Map(r.MembersOfRoom(roomID), func(u *domain.User, _ int) domain.Member {
		return u.Member()
	})
}

func (r *Registry) MemberCount(roomID domain.RoomID) int {
	return len(r.rooms[roomID])
}

func (r *Registry) Earliest(roomID domain.RoomID) (*domain.User, bool) {
	order := r.rooms[roomID]
	if len(order) == 0 {
		return nil, false
	}
	return r.users[order[0]], true
}

func (r *Registry) Latest(roomID domain.RoomID) (*domain.User, bool) {
	order := r.rooms[roomID]
	if len(order) == 0 {
		return nil, false
	}
	return r.users[order[len(order)-1]], true
}

// Admin returns the admin of roomID, if the room has one.
func (r *Registry) Admin(roomID domain.RoomID) (*domain.User, bool) {
	return lo.Find(r.MembersOfRoom(roomID), func(u *domain.User) bool { return u.IsAdmin() })
}

// InRoom reports whether sid is a member of roomID.
func (r *Registry) InRoom(sid core.SessionID, roomID domain.RoomID) (*domain.User, bool) {
	u, ok := r.users[sid]
	if !ok || u.RoomID != roomID {
		return nil, false
	}
	return u, true
}

// TransferAdmin moves the admin role from one member to another member of
// the same room in a single step.
func (r *Registry) TransferAdmin(from, to core.SessionID) error {
	src, ok := r.users[from]
	if !ok {
		return ErrNotMember
	}
	dst, ok := r.InRoom(to, src.RoomID)
	if !ok {
		return ErrNotMember
	}
	src.Role = domain.RoleMember
	dst.Role = domain.RoleAdmin
	log.Info().Str("module", "app.registry").Str("from", string(from)).Str("to", string(to)).Str("room", string(src.RoomID)).Msg("admin transferred")
	return nil
}

// PromoteEarliest makes the longest-standing member admin. Used when the
// admin leaves; the caller guarantees no admin remains.
func (r *Registry) PromoteEarliest(roomID domain.RoomID) (*domain.User, bool) {
	u, ok := r.Earliest(roomID)
	if !ok {
		return nil, false
	}
	u.Role = domain.RoleAdmin
	log.Info().Str("module", "app.registry").Str("sid", string(u.ID)).Str("room", string(roomID)).Msg("promoted earliest member")
	return u, true
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

func (r *Registry) Rooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, order := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(order)})
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) UserCount() int { return len(r.users) }
