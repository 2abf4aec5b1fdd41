package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttemptLimiter(t *testing.T) {
	t.Run("should refuse attempts beyond the window limit", func(t *testing.T) {
		req := require.New(t)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := NewAttemptLimiter(2, time.Minute)
		rl.now = func() time.Time { return now }

		req.True(rl.Allow("s1"))
		req.True(rl.Allow("s1"))
		req.False(rl.Allow("s1"))
		req.True(rl.Allow("s2"), "limits are per connection")

		now = now.Add(61 * time.Second)
		req.True(rl.Allow("s1"))
	})

	t.Run("should start over after forget", func(t *testing.T) {
		req := require.New(t)
		rl := NewAttemptLimiter(1, time.Hour)

		req.True(rl.Allow("s1"))
		req.False(rl.Allow("s1"))
		rl.Forget("s1")
		req.True(rl.Allow("s1"))
	})

	t.Run("should be disabled by a zero limit", func(t *testing.T) {
		rl := NewAttemptLimiter(0, time.Minute)
		for range 100 {
			require.True(t, rl.Allow("s1"))
		}
	})
}
