package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Sketch/internal/domain"
	"github.com/dkeye/Sketch/internal/protocol"
)

func TestValidator_Join(t *testing.T) {
	v := NewValidator()
	pw := func(s string) *string { return &s }

	t.Run("should accept a well formed join", func(t *testing.T) {
		require.NoError(t, v.Struct(protocol.JoinRoom{RoomID: string(roomA), Username: "Carol", Password: pw("pw")}))
		require.NoError(t, v.Struct(protocol.CreateRoom{RoomID: strings.ToUpper(string(roomA)), Username: "Al"}))
		require.NoError(t, v.Struct(protocol.JoinRoom{RoomID: string(roomA), Username: strings.Repeat("ж", domain.MaxUsernameLen), Password: pw(strings.Repeat("п", domain.MaxPasswordLen))}))
	})

	t.Run("should reject bad fields", func(t *testing.T) {
		for name, p := range map[string]protocol.JoinRoom{
			"room id":        {RoomID: "room-1", Username: "Carol"},
			"short name":     {RoomID: string(roomA), Username: "C"},
			"long name":      {RoomID: string(roomA), Username: strings.Repeat("c", domain.MaxUsernameLen+1)},
			"long password":  {RoomID: string(roomA), Username: "Carol", Password: pw(strings.Repeat("p", domain.MaxPasswordLen+1))},
			"uuid version 1": {RoomID: "3b241101-e2bb-1255-8caf-4136c566a962", Username: "Carol"},
		} {
			require.Error(t, v.Struct(p), name)
		}
	})
}

func TestValidator_MessageContent(t *testing.T) {
	req := require.New(t)
	v := NewValidator()

	req.NoError(v.MessageContent("hi"))
	req.NoError(v.MessageContent(strings.Repeat("é", domain.MaxMessageLen)))
	req.Error(v.MessageContent(""))
	req.Error(v.MessageContent(strings.Repeat("x", domain.MaxMessageLen+1)))
}
