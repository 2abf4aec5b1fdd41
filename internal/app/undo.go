package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/domain"
)

// UndoLedger is a per-room LIFO stack of opaque snapshots. maxDepth > 0
// bounds each stack by discarding the oldest snapshot.
type UndoLedger struct {
	storage  UndoStorage
	maxDepth int
}

func NewUndoLedger(storage UndoStorage, maxDepth int) *UndoLedger {
	return &UndoLedger{storage: storage, maxDepth: maxDepth}
}

func (l *UndoLedger) Push(roomID domain.RoomID, snapshot string) error {
	if err := l.storage.Append(roomID, []byte(snapshot)); err != nil {
		return err
	}
	if l.maxDepth > 0 {
		for l.storage.Depth(roomID) > l.maxDepth {
			l.storage.DropFirst(roomID)
		}
	}
	log.Debug().Str("module", "app.undo").Str("room", string(roomID)).Int("depth", l.storage.Depth(roomID)).Msg("undo point pushed")
	return nil
}

// PeekLast returns the top snapshot; ok is false when the stack is empty
// or the room is unknown.
func (l *UndoLedger) PeekLast(roomID domain.RoomID) (string, bool, error) {
	blob, ok, err := l.storage.Last(roomID)
	if err != nil || !ok {
		return "", false, err
	}
	return string(blob), true, nil
}

func (l *UndoLedger) PopLast(roomID domain.RoomID) {
	l.storage.TrimLast(roomID)
}

func (l *UndoLedger) Depth(roomID domain.RoomID) int {
	return l.storage.Depth(roomID)
}

func (l *UndoLedger) Purge(roomID domain.RoomID) {
	l.storage.Purge(roomID)
}
