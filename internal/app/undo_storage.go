package app

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/dkeye/Sketch/internal/domain"
)

// UndoStorage holds per-room stacks of snapshot blobs.
type UndoStorage interface {
	Append(roomID domain.RoomID, blob []byte) error
	Last(roomID domain.RoomID) ([]byte, bool, error)
	TrimLast(roomID domain.RoomID)
	DropFirst(roomID domain.RoomID)
	Depth(roomID domain.RoomID) int
	Purge(roomID domain.RoomID)
}

type MemoryUndoStorage struct {
	stacks map[domain.RoomID][][]byte
}

func NewMemoryUndoStorage() *MemoryUndoStorage {
	return &MemoryUndoStorage{stacks: make(map[domain.RoomID][][]byte)}
}

func (m *MemoryUndoStorage) Append(roomID domain.RoomID, blob []byte) error {
	m.stacks[roomID] = append(m.stacks[roomID], blob)
	return nil
}

func (m *MemoryUndoStorage) Last(roomID domain.RoomID) ([]byte, bool, error) {
	stack := m.stacks[roomID]
	if len(stack) == 0 {
		return nil, false, nil
	}
	return stack[len(stack)-1], true, nil
}

func (m *MemoryUndoStorage) TrimLast(roomID domain.RoomID) {
	stack, ok := m.stacks[roomID]
	if !ok || len(stack) == 0 {
		return
	}
	stack[len(stack)-1] = nil
	m.set(roomID, stack[:len(stack)-1])
}

func (m *MemoryUndoStorage) DropFirst(roomID domain.RoomID) {
	stack, ok := m.stacks[roomID]
	if !ok || len(stack) == 0 {
		return
	}
	stack[0] = nil
	m.set(roomID, stack[1:])
}

func (m *MemoryUndoStorage) set(roomID domain.RoomID, stack [][]byte) {
	if len(stack) == 0 {
		delete(m.stacks, roomID)
		return
	}
	m.stacks[roomID] = stack
}

func (m *MemoryUndoStorage) Depth(roomID domain.RoomID) int {
	return len(m.stacks[roomID])
}

func (m *MemoryUndoStorage) Purge(roomID domain.RoomID) {
	delete(m.stacks, roomID)
}

// ZstdUndoStorage compresses blobs before handing them to the wrapped
// storage. Canvas snapshots are base64 images and shrink well.
type ZstdUndoStorage struct {
	UndoStorage
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstdUndoStorage(inner UndoStorage) (*ZstdUndoStorage, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &ZstdUndoStorage{UndoStorage: inner, enc: enc, dec: dec}, nil
}

func (z *ZstdUndoStorage) Append(roomID domain.RoomID, blob []byte) error {
	return z.UndoStorage.Append(roomID, z.enc.EncodeAll(blob, nil))
}

func (z *ZstdUndoStorage) Last(roomID domain.RoomID) ([]byte, bool, error) {
	packed, ok, err := z.UndoStorage.Last(roomID)
	if err != nil || !ok {
		return nil, ok, err
	}
	blob, err := z.dec.DecodeAll(packed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd decode: %w", err)
	}
	return blob, true, nil
}
