package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Run("should accept names between 2 and 20 runes", func(t *testing.T) {
		req := require.New(t)
		req.NoError(ValidateUsername("Al"))
		req.NoError(ValidateUsername(strings.Repeat("x", 20)))
		req.NoError(ValidateUsername("Жора"))
	})

	t.Run("should reject names outside the bounds", func(t *testing.T) {
		req := require.New(t)
		req.ErrorIs(ValidateUsername("A"), ErrUsernameTooShort)
		req.ErrorIs(ValidateUsername(""), ErrUsernameTooShort)
		req.ErrorIs(ValidateUsername(strings.Repeat("x", 21)), ErrUsernameTooLong)
	})
}

func TestValidatePassword(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidatePassword(""))
	req.NoError(ValidatePassword(strings.Repeat("п", MaxPasswordLen)))
	req.ErrorIs(ValidatePassword(strings.Repeat("p", MaxPasswordLen+1)), ErrPasswordTooLong)
}

func TestParseRoomID(t *testing.T) {
	t.Run("should accept a v4 uuid in any case", func(t *testing.T) {
		req := require.New(t)
		raw := "3b241101-e2bb-4255-8caf-4136c566a962"

		id, err := ParseRoomID(raw)
		req.NoError(err)
		req.Equal(RoomID(raw), id)

		_, err = ParseRoomID(strings.ToUpper(raw))
		req.NoError(err)
	})

	t.Run("should accept freshly generated ids", func(t *testing.T) {
		_, err := ParseRoomID(uuid.NewString())
		require.NoError(t, err)
	})

	t.Run("should reject anything else", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"room-1",
			"3b241101-e2bb-1255-8caf-4136c566a962",        // version 1
			"3b241101-e2bb-4255-0caf-4136c566a962",        // NCS variant
			"3b241101e2bb42558caf4136c566a962",            // no dashes
			"{3b241101-e2bb-4255-8caf-4136c566a962}",      // braces
			"urn:uuid:3b241101-e2bb-4255-8caf-4136c566a962",
		} {
			_, err := ParseRoomID(raw)
			require.ErrorIs(t, err, ErrInvalidRoomID, raw)
		}
	})
}

func TestChatHistory_UnmarshalJSON(t *testing.T) {
	req := require.New(t)
	data := []byte(`[
		{"id":"1","content":"hi","createdAt":"2024-01-01T00:00:00Z","userId":"u1","username":"Alice"},
		{"id":"2","type":"system","content":"Bob joined the room","createdAt":"2024-01-01T00:00:01Z"}
	]`)

	var h ChatHistory
	req.NoError(json.Unmarshal(data, &h))
	req.Len(h, 2)

	msg, ok := h[0].(Message)
	req.True(ok)
	req.Equal("Alice", msg.Username)
	req.Equal(UserID("u1"), msg.UserID)

	sys, ok := h[1].(SystemMessage)
	req.True(ok)
	req.Equal("system", sys.Type)
	req.Equal("Bob joined the room", sys.Content)
}

func TestNewSystemMessage(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	m := NewSystemMessage("Alice left the room", at)

	req.NotEmpty(m.ID)
	req.Equal("system", m.Type)
	req.Equal("2024-05-01T11:00:00Z", m.CreatedAt)
}

func TestPresenceStatus_Valid(t *testing.T) {
	req := require.New(t)
	req.NoError(PresenceActive.Valid())
	req.NoError(PresenceDrawing.Valid())
	req.NoError(PresenceIdle.Valid())
	req.ErrorIs(PresenceStatus("away").Valid(), ErrUnknownPresence)
}

func TestUser_Member(t *testing.T) {
	u := &User{ID: "s1", Username: "Alice", RoomID: "r", Role: RoleAdmin}
	require.Equal(t, Member{ID: "s1", Username: "Alice", Role: RoleAdmin}, u.Member())
	require.True(t, u.IsAdmin())
}
