package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Sketch/internal/domain"
)

// RoomStore keeps per-room settings and the hashed room password.
// Settings are created lazily; Purge drops everything for a room.
// Owned by the orchestrator loop.
type RoomStore struct {
	settings  map[domain.RoomID]*domain.RoomSettings
	passwords map[domain.RoomID]string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		settings:  make(map[domain.RoomID]*domain.RoomSettings),
		passwords: make(map[domain.RoomID]string),
	}
}

func (s *RoomStore) GetOrCreate(roomID domain.RoomID) *domain.RoomSettings {
	if rs, ok := s.settings[roomID]; ok {
		return rs
	}
	rs := &domain.RoomSettings{}
	s.settings[roomID] = rs
	return rs
}

// Locked reads the lock flag without creating settings.
func (s *RoomStore) Locked(roomID domain.RoomID) bool {
	rs, ok := s.settings[roomID]
	return ok && rs.CanvasLocked
}

// ToggleLock flips the lock flag and returns the new value.
func (s *RoomStore) ToggleLock(roomID domain.RoomID) bool {
	rs := s.GetOrCreate(roomID)
	rs.CanvasLocked = !rs.CanvasLocked
	return rs.CanvasLocked
}

// SetPasswordHash stores an argon2id hash produced by HashPassword.
func (s *RoomStore) SetPasswordHash(roomID domain.RoomID, hash string) {
	s.passwords[roomID] = hash
}

// PasswordHash returns the stored hash; false means the room is open.
func (s *RoomStore) PasswordHash(roomID domain.RoomID) (string, bool) {
	hash, ok := s.passwords[roomID]
	return hash, ok
}

func (s *RoomStore) Purge(roomID domain.RoomID) {
	delete(s.settings, roomID)
	delete(s.passwords, roomID)
	log.Info().Str("module", "app.rooms").Str("room", string(roomID)).Msg("room settings purged")
}
