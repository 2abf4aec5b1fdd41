package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Sketch/internal/app"
	"github.com/dkeye/Sketch/internal/app/orch"
	"github.com/dkeye/Sketch/internal/protocol"
)

const testRoom = "3b241101-e2bb-4255-8caf-4136c566a962"

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	o := orch.New(hub, app.NewUndoLedger(app.NewMemoryUndoStorage(), 0), orch.Config{})
	go func() { _ = o.Run(ctx) }()

	opts := DefaultOptions()
	opts.PingPeriod = 50 * time.Millisecond
	ctrl := NewSignalWSController(o, hub, opts)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctrl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sendIntent(t *testing.T, c *websocket.Conn, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(protocol.Envelope{Type: typ, Data: raw})
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, frame))
}

// expect reads until an event of type typ arrives and returns its data.
func expect(t *testing.T, c *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := c.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type == typ {
			return env.Data
		}
	}
}

func TestSignal_EndToEnd(t *testing.T) {
	req := require.New(t)
	url := startServer(t)

	alice := dial(t, url)
	sendIntent(t, alice, protocol.TypeCreateRoom, map[string]any{"roomId": testRoom, "username": "Alice"})
	var joined protocol.RoomJoined
	req.NoError(json.Unmarshal(expect(t, alice, protocol.TypeRoomJoined), &joined))
	req.Equal("admin", string(joined.User.Role))

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("garbage")))
	sendIntent(t, alice, protocol.TypePing, nil)
	expect(t, alice, protocol.TypePong)

	bob := dial(t, url)
	sendIntent(t, bob, protocol.TypeJoinRoom, map[string]any{"roomId": testRoom, "username": "Bob"})
	req.NoError(json.Unmarshal(expect(t, bob, protocol.TypeRoomJoined), &joined))
	req.Len(joined.Members, 2)
	expect(t, alice, protocol.TypeUpdateMembers)

	sendIntent(t, bob, protocol.TypeDraw, map[string]any{"roomId": testRoom, "drawOptions": map[string]any{"tool": "pen"}})
	var draw protocol.UpdateCanvasState
	req.NoError(json.Unmarshal(expect(t, alice, protocol.TypeUpdateCanvasState), &draw))
	req.Equal(joined.User.ID, draw.UserID)
	req.JSONEq(`{"tool":"pen"}`, string(draw.DrawOptions))

	// An abrupt close goes through the same path as leave.
	_ = alice.Close()
	var role protocol.RoleChanged
	req.NoError(json.Unmarshal(expect(t, bob, protocol.TypeRoleChanged), &role))
	req.Equal("admin", string(role.Role))
	expect(t, bob, protocol.TypeCursorLeave)
}
