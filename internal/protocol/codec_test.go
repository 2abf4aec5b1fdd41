package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Sketch/internal/domain"
)

func TestDecode(t *testing.T) {
	t.Run("should decode a join with password", func(t *testing.T) {
		req := require.New(t)
		frame := []byte(`{"type":"join-room","data":{"roomId":"3b241101-e2bb-4255-8caf-4136c566a962","username":"Carol","password":"pw"}}`)

		in, err := Decode(frame)
		req.NoError(err)

		join, ok := in.(JoinRoom)
		req.True(ok)
		req.Equal("Carol", join.Username)
		req.NotNil(join.Password)
		req.Equal("pw", *join.Password)
	})

	t.Run("should keep draw options opaque", func(t *testing.T) {
		req := require.New(t)
		frame := []byte(`{"type":"draw","data":{"roomId":"r1","drawOptions":{"tool":"pen","points":[[1,2],[3,4]]}}}`)

		in, err := Decode(frame)
		req.NoError(err)

		draw := in.(Draw)
		req.Equal(domain.RoomID("r1"), draw.RoomID)
		req.JSONEq(`{"tool":"pen","points":[[1,2],[3,4]]}`, string(draw.DrawOptions))
	})

	t.Run("should accept intents without data", func(t *testing.T) {
		req := require.New(t)

		in, err := Decode([]byte(`{"type":"leave-room"}`))
		req.NoError(err)
		req.IsType(LeaveRoom{}, in)

		in, err = Decode([]byte(`{"type":"ping","data":null}`))
		req.NoError(err)
		req.IsType(Ping{}, in)
	})

	t.Run("should decode chat state history variants", func(t *testing.T) {
		req := require.New(t)
		frame := []byte(`{"type":"send-chat-state","data":{"roomId":"r1","messages":[{"id":"1","type":"system","content":"x","createdAt":"t"}]}}`)

		in, err := Decode(frame)
		req.NoError(err)
		st := in.(SendChatState)
		req.Len(st.Messages, 1)
		req.IsType(domain.SystemMessage{}, st.Messages[0])
	})

	t.Run("should reject unknown types", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"rename","data":{}}`))
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("should never decode a client sent disconnect", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"disconnect"}`))
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("should reject malformed frames", func(t *testing.T) {
		req := require.New(t)

		_, err := Decode([]byte(`not json`))
		req.ErrorIs(err, ErrMalformed)

		_, err = Decode([]byte(`{"type":"cursor-move","data":{"x":"left"}}`))
		req.ErrorIs(err, ErrMalformed)
	})
}

func TestEncode(t *testing.T) {
	t.Run("should wrap the payload in an envelope", func(t *testing.T) {
		req := require.New(t)
		ev := RoomJoined{
			User:         domain.Member{ID: "s1", Username: "Alice", Role: domain.RoleAdmin},
			RoomID:       "r1",
			Members:      []domain.Member{{ID: "s1", Username: "Alice", Role: domain.RoleAdmin}},
			CanvasLocked: true,
		}

		b, err := Encode(ev)
		req.NoError(err)
		req.JSONEq(`{"type":"room-joined","data":{
			"user":{"id":"s1","username":"Alice","role":"admin"},
			"roomId":"r1",
			"members":[{"id":"s1","username":"Alice","role":"admin"}],
			"canvasLocked":true}}`, string(b))
	})

	t.Run("should flatten embedded messages", func(t *testing.T) {
		req := require.New(t)
		ev := SystemMessageFromServer{SystemMessage: domain.SystemMessage{ID: "m1", Type: "system", Content: "Bob joined the room", CreatedAt: "t"}}

		b, err := Encode(ev)
		req.NoError(err)

		var env Envelope
		req.NoError(json.Unmarshal(b, &env))
		req.Equal(TypeSystemMessageFromServer, env.Type)
		req.JSONEq(`{"id":"m1","type":"system","content":"Bob joined the room","createdAt":"t"}`, string(env.Data))
	})

	t.Run("should send a null undo point when the ledger is empty", func(t *testing.T) {
		b, err := Encode(LastUndoPointFromServer{})
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"last-undo-point-from-server","data":{"undoPoint":null}}`, string(b))
	})

	t.Run("should use the clear-canvas name for the broadcast", func(t *testing.T) {
		b, err := Encode(ClearCanvasBroadcast{UserID: "s2"})
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"clear-canvas","data":{"userId":"s2"}}`, string(b))
	})
}

func TestPrepare(t *testing.T) {
	req := require.New(t)

	enc, err := Prepare(LockChanged{Locked: true})
	req.NoError(err)
	req.Equal(TypeLockChanged, enc.EventType())
	req.JSONEq(`{"type":"lock-changed","data":{"locked":true}}`, string(enc.Frame))

	again, err := Prepare(enc)
	req.NoError(err)
	req.Same(&enc.Frame[0], &again.Frame[0], "a prepared event is not rendered twice")

	b, err := Encode(enc)
	req.NoError(err)
	req.Same(&enc.Frame[0], &b[0])
}
