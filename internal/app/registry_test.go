package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Sketch/internal/domain"
)

const roomA domain.RoomID = "3b241101-e2bb-4255-8caf-4136c566a962"
const roomB domain.RoomID = "9f0c2b1a-6d5e-4f3a-9b8c-7d6e5f4a3b2c"

func TestRegistry_AddAndRemove(t *testing.T) {
	t.Run("should keep join order per room", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()

		_, err := r.Add("a", roomA, "Alice", domain.RoleAdmin)
		req.NoError(err)
		_, err = r.Add("b", roomA, "Bob", domain.RoleMember)
		req.NoError(err)
		_, err = r.Add("c", roomB, "Carol", domain.RoleAdmin)
		req.NoError(err)

		req.Equal([]domain.Member{
			{ID: "a", Username: "Alice", Role: domain.RoleAdmin},
			{ID: "b", Username: "Bob", Role: domain.RoleMember},
		}, r.Members(roomA))
		req.Equal(2, r.MemberCount(roomA))
		req.Equal(3, r.UserCount())

		first, ok := r.Earliest(roomA)
		req.True(ok)
		req.Equal(domain.UserID("a"), first.ID)
		last, ok := r.Latest(roomA)
		req.True(ok)
		req.Equal(domain.UserID("b"), last.ID)
	})

	t.Run("should refuse a second user on the same connection", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Add("a", roomA, "Alice", domain.RoleAdmin)
		require.NoError(t, err)

		_, err = r.Add("a", roomB, "Alice", domain.RoleAdmin)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("should drop the room once the last user is removed", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)

		u, ok := r.Remove("a")
		req.True(ok)
		req.Equal("Alice", u.Username)
		req.Zero(r.MemberCount(roomA))
		req.Empty(r.Rooms())

		_, ok = r.Remove("a")
		req.False(ok)
	})
}

func TestRegistry_InRoom(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)

	_, ok := r.InRoom("a", roomA)
	req.True(ok)
	_, ok = r.InRoom("a", roomB)
	req.False(ok)
	_, ok = r.InRoom("ghost", roomA)
	req.False(ok)
}

func TestRegistry_TransferAdmin(t *testing.T) {
	t.Run("should swap roles in one step", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)
		_, _ = r.Add("b", roomA, "Bob", domain.RoleMember)

		req.NoError(r.TransferAdmin("a", "b"))

		admin, ok := r.Admin(roomA)
		req.True(ok)
		req.Equal(domain.UserID("b"), admin.ID)
		req.Equal(1, countAdmins(r, roomA))
	})

	t.Run("should refuse a target from another room", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry()
		_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)
		_, _ = r.Add("c", roomB, "Carol", domain.RoleAdmin)

		req.ErrorIs(r.TransferAdmin("a", "c"), ErrNotMember)
		req.ErrorIs(r.TransferAdmin("ghost", "a"), ErrNotMember)
		req.Equal(1, countAdmins(r, roomA))
		req.Equal(1, countAdmins(r, roomB))
	})
}

func TestRegistry_PromoteEarliest(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)
	_, _ = r.Add("b", roomA, "Bob", domain.RoleMember)
	_, _ = r.Add("c", roomA, "Carol", domain.RoleMember)
	_, _ = r.Remove("a")

	u, ok := r.PromoteEarliest(roomA)
	req.True(ok)
	req.Equal(domain.UserID("b"), u.ID)
	req.Equal(1, countAdmins(r, roomA))

	_, ok = r.PromoteEarliest(roomB)
	req.False(ok)
}

func TestRegistry_Rooms(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Add("c", roomB, "Carol", domain.RoleAdmin)
	_, _ = r.Add("a", roomA, "Alice", domain.RoleAdmin)
	_, _ = r.Add("b", roomA, "Bob", domain.RoleMember)

	require.Equal(t, []RoomInfo{
		{ID: roomA, MemberCount: 2},
		{ID: roomB, MemberCount: 1},
	}, r.Rooms())
}

func countAdmins(r *Registry, roomID domain.RoomID) int {
	n := 0
	for _, u := range r.MembersOfRoom(roomID) {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

