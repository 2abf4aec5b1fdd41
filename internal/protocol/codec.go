// Package protocol defines the wire contract between clients and the coordinator.
// Every frame is a JSON envelope {"type": "<event name>", "data": {...}}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown event type")
)

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type decodeFunc func(json.RawMessage) (Inbound, error)

func decodeAs[T Inbound](data json.RawMessage) (Inbound, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return v, nil
}

// Disconnect is deliberately absent: only the transport may produce it.
var inboundDecoders = map[string]decodeFunc{
	TypeCreateRoom:          decodeAs[CreateRoom],
	TypeJoinRoom:            decodeAs[JoinRoom],
	TypeClientReady:         decodeAs[ClientReady],
	TypeLeaveRoom:           decodeAs[LeaveRoom],
	TypeDraw:                decodeAs[Draw],
	TypeClearCanvas:         decodeAs[ClearCanvas],
	TypeUndo:                decodeAs[Undo],
	TypeAddUndoPoint:        decodeAs[AddUndoPoint],
	TypeDeleteLastUndoPoint: decodeAs[DeleteLastUndoPoint],
	TypeGetLastUndoPoint:    decodeAs[GetLastUndoPoint],
	TypeSendChatMessage:     decodeAs[SendChatMessage],
	TypeSendChatState:       decodeAs[SendChatState],
	TypeSendCanvasState:     decodeAs[SendCanvasState],
	TypeTyping:              decodeAs[Typing],
	TypeCursorMove:          decodeAs[CursorMove],
	TypePresenceUpdate:      decodeAs[PresenceUpdate],
	TypeKickUser:            decodeAs[KickUser],
	TypePromoteUser:         decodeAs[PromoteUser],
	TypeToggleCanvasLock:    decodeAs[ToggleCanvasLock],
	TypePing:                decodeAs[Ping],
}

// Decode parses one inbound frame into its variant. The envelope is read
// by path so only the payload is unmarshalled.
func Decode(frame []byte) (Inbound, error) {
	if !gjson.ValidBytes(frame) {
		return nil, ErrMalformed
	}
	env := gjson.ParseBytes(frame)
	if !env.IsObject() {
		return nil, fmt.Errorf("%w: envelope is not an object", ErrMalformed)
	}
	typ := env.Get("type").String()
	dec, ok := inboundDecoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return dec(json.RawMessage(env.Get("data").Raw))
}

// Encoded is an outbound event carrying its rendered frame, so a fan-out
// marshals once.
type Encoded struct {
	Outbound
	Frame []byte
}

// Prepare renders ev once for delivery to many connections.
func Prepare(ev Outbound) (Encoded, error) {
	if e, ok := ev.(Encoded); ok {
		return e, nil
	}
	frame, err := Encode(ev)
	if err != nil {
		return Encoded{}, err
	}
	return Encoded{Outbound: ev, Frame: frame}, nil
}

// Encode renders an outbound event as an envelope. Prepared events are
// returned as is.
func Encode(ev Outbound) ([]byte, error) {
	if e, ok := ev.(Encoded); ok {
		return e.Frame, nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return json.Marshal(Envelope{Type: ev.EventType(), Data: data})
}
