package protocol

import (
	"encoding/json"

	"github.com/dkeye/Sketch/internal/domain"
)

const (
	TypeCreateRoom          = "create-room"
	TypeJoinRoom            = "join-room"
	TypeClientReady         = "client-ready"
	TypeLeaveRoom           = "leave-room"
	TypeDisconnect          = "disconnect"
	TypeDraw                = "draw"
	TypeClearCanvas         = "clear-canvas"
	TypeUndo                = "undo"
	TypeAddUndoPoint        = "add-undo-point"
	TypeDeleteLastUndoPoint = "delete-last-undo-point"
	TypeGetLastUndoPoint    = "get-last-undo-point"
	TypeSendChatMessage     = "send-chat-message"
	TypeSendChatState       = "send-chat-state"
	TypeSendCanvasState     = "send-canvas-state"
	TypeTyping              = "typing"
	TypeCursorMove          = "cursor-move"
	TypePresenceUpdate      = "presence-update"
	TypeKickUser            = "kick-user"
	TypePromoteUser         = "promote-user"
	TypeToggleCanvasLock    = "toggle-canvas-lock"
	TypePing                = "ping"
)

// Inbound is an intent issued by a client. The set of variants is closed:
// only types in this package implement it.
type Inbound interface {
	EventType() string
	inbound()
}

type CreateRoom struct {
	RoomID   string  `json:"roomId" validate:"roomid"`
	Username string  `json:"username" validate:"username"`
	Password *string `json:"password,omitempty" validate:"omitempty,roompassword"`
}

type JoinRoom struct {
	RoomID   string  `json:"roomId" validate:"roomid"`
	Username string  `json:"username" validate:"username"`
	Password *string `json:"password,omitempty" validate:"omitempty,roompassword"`
}

type ClientReady struct {
	RoomID domain.RoomID `json:"roomId"`
}

type LeaveRoom struct{}

// Disconnect is produced by the transport when a socket goes away.
type Disconnect struct{}

type Draw struct {
	DrawOptions json.RawMessage `json:"drawOptions"`
	RoomID      domain.RoomID   `json:"roomId"`
}

type ClearCanvas struct {
	RoomID domain.RoomID `json:"roomId"`
}

type Undo struct {
	CanvasState string        `json:"canvasState"`
	RoomID      domain.RoomID `json:"roomId"`
}

type AddUndoPoint struct {
	RoomID    domain.RoomID `json:"roomId"`
	UndoPoint string        `json:"undoPoint"`
}

type DeleteLastUndoPoint struct {
	RoomID domain.RoomID `json:"roomId"`
}

type GetLastUndoPoint struct {
	RoomID domain.RoomID `json:"roomId"`
}

type SendChatMessage struct {
	Message domain.Message `json:"message"`
	RoomID  domain.RoomID  `json:"roomId"`
}

type SendChatState struct {
	Messages domain.ChatHistory `json:"messages"`
	RoomID   domain.RoomID      `json:"roomId"`
}

type SendCanvasState struct {
	CanvasState string        `json:"canvasState"`
	RoomID      domain.RoomID `json:"roomId"`
}

type Typing struct {
	RoomID   domain.RoomID `json:"roomId"`
	IsTyping bool          `json:"isTyping"`
}

type CursorMove struct {
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	RoomID domain.RoomID `json:"roomId"`
}

type PresenceUpdate struct {
	RoomID domain.RoomID         `json:"roomId"`
	Status domain.PresenceStatus `json:"status"`
}

type KickUser struct {
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

type PromoteUser struct {
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

type ToggleCanvasLock struct {
	RoomID domain.RoomID `json:"roomId"`
}

type Ping struct{}

func (CreateRoom) EventType() string          { return TypeCreateRoom }
func (JoinRoom) EventType() string            { return TypeJoinRoom }
func (ClientReady) EventType() string         { return TypeClientReady }
func (LeaveRoom) EventType() string           { return TypeLeaveRoom }
func (Disconnect) EventType() string          { return TypeDisconnect }
func (Draw) EventType() string                { return TypeDraw }
func (ClearCanvas) EventType() string         { return TypeClearCanvas }
func (Undo) EventType() string                { return TypeUndo }
func (AddUndoPoint) EventType() string        { return TypeAddUndoPoint }
func (DeleteLastUndoPoint) EventType() string { return TypeDeleteLastUndoPoint }
func (GetLastUndoPoint) EventType() string    { return TypeGetLastUndoPoint }
func (SendChatMessage) EventType() string     { return TypeSendChatMessage }
func (SendChatState) EventType() string       { return TypeSendChatState }
func (SendCanvasState) EventType() string     { return TypeSendCanvasState }
func (Typing) EventType() string              { return TypeTyping }
func (CursorMove) EventType() string          { return TypeCursorMove }
func (PresenceUpdate) EventType() string      { return TypePresenceUpdate }
func (KickUser) EventType() string            { return TypeKickUser }
func (PromoteUser) EventType() string         { return TypePromoteUser }
func (ToggleCanvasLock) EventType() string    { return TypeToggleCanvasLock }
func (Ping) EventType() string                { return TypePing }

func (CreateRoom) inbound()          {}
func (JoinRoom) inbound()            {}
func (ClientReady) inbound()         {}
func (LeaveRoom) inbound()           {}
func (Disconnect) inbound()          {}
func (Draw) inbound()                {}
func (ClearCanvas) inbound()         {}
func (Undo) inbound()                {}
func (AddUndoPoint) inbound()        {}
func (DeleteLastUndoPoint) inbound() {}
func (GetLastUndoPoint) inbound()    {}
func (SendChatMessage) inbound()     {}
func (SendChatState) inbound()       {}
func (SendCanvasState) inbound()     {}
func (Typing) inbound()              {}
func (CursorMove) inbound()          {}
func (PresenceUpdate) inbound()      {}
func (KickUser) inbound()            {}
func (PromoteUser) inbound()         {}
func (ToggleCanvasLock) inbound()    {}
func (Ping) inbound()                {}
