package signal

import (
	"time"

	"github.com/gorilla/websocket"
)

// keepalive arms the read side: frame size limit, and a read deadline that
// every pong pushes forward.
func (ctl *SignalWSController) keepalive(c *WsSignalConn) error {
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
	return nil
}

func (ctl *SignalWSController) ping(c *WsSignalConn) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (ctl *SignalWSController) writeClose(c *WsSignalConn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.opts.WriteWait))
}
