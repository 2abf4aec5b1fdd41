package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxMessageLen = 100

var ErrUnknownPresence = errors.New("unknown presence status")

// ChatMessage is either a Message or a SystemMessage.
type ChatMessage interface {
	chatMessage()
}

type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UserID    UserID `json:"userId"`
	Username  string `json:"username"`
}

type SystemMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func (Message) chatMessage()       {}
func (SystemMessage) chatMessage() {}

func NewSystemMessage(content string, at time.Time) SystemMessage {
	return SystemMessage{
		ID:        uuid.NewString(),
		Type:      "system",
		Content:   content,
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
	}
}

// ChatHistory is a client-held list of chat entries, decoded into the right variant per entry.
type ChatHistory []ChatMessage

func (h *ChatHistory) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ChatHistory, 0, len(raw))
	for _, item := range raw {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return err
		}
		if head.Type == "system" {
			var m SystemMessage
			if err := json.Unmarshal(item, &m); err != nil {
				return err
			}
			out = append(out, m)
			continue
		}
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			return err
		}
		out = append(out, m)
	}
	*h = out
	return nil
}

type CursorEvent struct {
	UserID   UserID  `json:"userId"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type PresenceStatus string

const (
	PresenceActive  PresenceStatus = "active"
	PresenceDrawing PresenceStatus = "drawing"
	PresenceIdle    PresenceStatus = "idle"
)

func (p PresenceStatus) Valid() error {
	switch p {
	case PresenceActive, PresenceDrawing, PresenceIdle:
		return nil
	}
	return ErrUnknownPresence
}
