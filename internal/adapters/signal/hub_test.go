package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Sketch/internal/core"
	"github.com/dkeye/Sketch/internal/core/mocks"
	"github.com/dkeye/Sketch/internal/protocol"
)

func TestHub_Deliver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should encode and queue on the registered connection", func(t *testing.T) {
		req := require.New(t)
		conn := mocks.NewMockSignalConnection(ctrl)
		hub := NewHub()
		hub.Register("s1", conn)

		conn.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
			req.JSONEq(`{"type":"lock-changed","data":{"locked":true}}`, string(f))
			return nil
		})

		req.NoError(hub.Deliver("s1", protocol.LockChanged{Locked: true}))
	})

	t.Run("should queue a prepared frame without encoding again", func(t *testing.T) {
		req := require.New(t)
		conn := mocks.NewMockSignalConnection(ctrl)
		hub := NewHub()
		hub.Register("s1", conn)
		enc := protocol.Encoded{Outbound: protocol.Pong{}, Frame: []byte(`{"type":"pong","data":{"cached":true}}`)}

		conn.EXPECT().TrySend(gomock.Any()).DoAndReturn(func(f core.Frame) error {
			req.Same(&enc.Frame[0], &f[0])
			return nil
		})

		req.NoError(hub.Deliver("s1", enc))
	})

	t.Run("should surface backpressure from the connection", func(t *testing.T) {
		conn := mocks.NewMockSignalConnection(ctrl)
		hub := NewHub()
		hub.Register("s1", conn)

		conn.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure)

		err := hub.Deliver("s1", protocol.Pong{})
		require.True(t, errors.Is(err, core.ErrBackpressure))
	})

	t.Run("should report unknown sessions as closed", func(t *testing.T) {
		hub := NewHub()
		require.ErrorIs(t, hub.Deliver("ghost", protocol.Pong{}), core.ErrClosed)
	})
}

func TestHub_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := mocks.NewMockSignalConnection(ctrl)
	hub := NewHub()
	hub.Register("s1", conn)
	require.Equal(t, 1, hub.Count())

	conn.EXPECT().Close().Times(1)
	hub.Close("s1")
	hub.Close("ghost")

	hub.Unregister("s1")
	require.Zero(t, hub.Count())
}
