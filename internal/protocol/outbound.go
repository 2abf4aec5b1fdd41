package protocol

import (
	"encoding/json"

	"github.com/dkeye/Sketch/internal/domain"
)

const (
	TypeRoomJoined              = "room-joined"
	TypeRoomNotFound            = "room-not-found"
	TypeInvalidData             = "invalid-data"
	TypePasswordRequired        = "password-required"
	TypeInvalidPassword         = "invalid-password"
	TypeUpdateMembers           = "update-members"
	TypeSystemMessageFromServer = "system-message-from-server"
	TypeSendNotification        = "send-notification"
	TypeRoleChanged             = "role-changed"
	TypeKicked                  = "kicked"
	TypeLockChanged             = "lock-changed"
	TypeChatMessageFromServer   = "chat-message-from-server"
	TypeChatStateFromServer     = "chat-state-from-server"
	TypeCanvasStateFromServer   = "canvas-state-from-server"
	TypeUpdateCanvasState       = "update-canvas-state"
	TypeUndoCanvas              = "undo-canvas"
	TypeClearCanvasBroadcast    = "clear-canvas"
	TypeCursorUpdate            = "cursor-update"
	TypeCursorLeave             = "cursor-leave"
	TypeUserPresence            = "user-presence"
	TypeUserTyping              = "user-typing"
	TypeLastUndoPointFromServer = "last-undo-point-from-server"
	TypeGetCanvasState          = "get-canvas-state"
	TypeGetChatState            = "get-chat-state"
	TypeClientLoaded            = "client-loaded"
	TypePong                    = "pong"
)

// Outbound is an event relayed back to clients. Closed like Inbound.
type Outbound interface {
	EventType() string
	outbound()
}

type RoomJoined struct {
	User         domain.Member   `json:"user"`
	RoomID       domain.RoomID   `json:"roomId"`
	Members      []domain.Member `json:"members"`
	CanvasLocked bool            `json:"canvasLocked"`
}

type RoomNotFound struct {
	Message string `json:"message"`
}

type InvalidData struct {
	Message string `json:"message"`
}

type PasswordRequired struct {
	Message string `json:"message"`
}

type InvalidPassword struct {
	Message string `json:"message"`
}

type UpdateMembers struct {
	Members []domain.Member `json:"members"`
}

type SystemMessageFromServer struct {
	domain.SystemMessage
}

type SendNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type RoleChanged struct {
	Role domain.Role `json:"role"`
}

type Kicked struct {
	RoomID domain.RoomID `json:"roomId"`
	Reason string        `json:"reason"`
}

type LockChanged struct {
	Locked bool `json:"locked"`
}

type ChatMessageFromServer struct {
	domain.Message
}

type ChatStateFromServer struct {
	Messages domain.ChatHistory `json:"messages"`
}

type CanvasStateFromServer struct {
	CanvasState string `json:"canvasState"`
}

type UpdateCanvasState struct {
	UserID      domain.UserID   `json:"userId"`
	DrawOptions json.RawMessage `json:"drawOptions"`
}

type UndoCanvas struct {
	UserID      domain.UserID `json:"userId"`
	CanvasState string        `json:"canvasState"`
}

type ClearCanvasBroadcast struct {
	UserID domain.UserID `json:"userId"`
}

type CursorUpdate struct {
	domain.CursorEvent
}

type CursorLeave struct {
	UserID domain.UserID `json:"userId"`
}

type UserPresence struct {
	UserID domain.UserID         `json:"userId"`
	Status domain.PresenceStatus `json:"status"`
}

type UserTyping struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	IsTyping bool          `json:"isTyping"`
}

// LastUndoPointFromServer carries a nil UndoPoint when the ledger is empty.
type LastUndoPointFromServer struct {
	UndoPoint *string `json:"undoPoint"`
}

type GetCanvasState struct{}

type GetChatState struct{}

type ClientLoaded struct{}

type Pong struct{}

func (RoomJoined) EventType() string              { return TypeRoomJoined }
func (RoomNotFound) EventType() string            { return TypeRoomNotFound }
func (InvalidData) EventType() string             { return TypeInvalidData }
func (PasswordRequired) EventType() string        { return TypePasswordRequired }
func (InvalidPassword) EventType() string         { return TypeInvalidPassword }
func (UpdateMembers) EventType() string           { return TypeUpdateMembers }
func (SystemMessageFromServer) EventType() string { return TypeSystemMessageFromServer }
func (SendNotification) EventType() string        { return TypeSendNotification }
func (RoleChanged) EventType() string             { return TypeRoleChanged }
func (Kicked) EventType() string                  { return TypeKicked }
func (LockChanged) EventType() string             { return TypeLockChanged }
func (ChatMessageFromServer) EventType() string   { return TypeChatMessageFromServer }
func (ChatStateFromServer) EventType() string     { return TypeChatStateFromServer }
func (CanvasStateFromServer) EventType() string   { return TypeCanvasStateFromServer }
func (UpdateCanvasState) EventType() string       { return TypeUpdateCanvasState }
func (UndoCanvas) EventType() string              { return TypeUndoCanvas }
func (ClearCanvasBroadcast) EventType() string    { return TypeClearCanvasBroadcast }
func (CursorUpdate) EventType() string            { return TypeCursorUpdate }
func (CursorLeave) EventType() string             { return TypeCursorLeave }
func (UserPresence) EventType() string            { return TypeUserPresence }
func (UserTyping) EventType() string              { return TypeUserTyping }
func (LastUndoPointFromServer) EventType() string { return TypeLastUndoPointFromServer }
func (GetCanvasState) EventType() string          { return TypeGetCanvasState }
func (GetChatState) EventType() string            { return TypeGetChatState }
func (ClientLoaded) EventType() string            { return TypeClientLoaded }
func (Pong) EventType() string                    { return TypePong }

func (RoomJoined) outbound()              {}
func (RoomNotFound) outbound()            {}
func (InvalidData) outbound()             {}
func (PasswordRequired) outbound()        {}
func (InvalidPassword) outbound()         {}
func (UpdateMembers) outbound()           {}
func (SystemMessageFromServer) outbound() {}
func (SendNotification) outbound()        {}
func (RoleChanged) outbound()             {}
func (Kicked) outbound()                  {}
func (LockChanged) outbound()             {}
func (ChatMessageFromServer) outbound()   {}
func (ChatStateFromServer) outbound()     {}
func (CanvasStateFromServer) outbound()   {}
func (UpdateCanvasState) outbound()       {}
func (UndoCanvas) outbound()              {}
func (ClearCanvasBroadcast) outbound()    {}
func (CursorUpdate) outbound()            {}
func (CursorLeave) outbound()             {}
func (UserPresence) outbound()            {}
func (UserTyping) outbound()              {}
func (LastUndoPointFromServer) outbound() {}
func (GetCanvasState) outbound()          {}
func (GetChatState) outbound()            {}
func (ClientLoaded) outbound()            {}
func (Pong) outbound()                    {}
