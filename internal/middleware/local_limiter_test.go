package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalLimiter_AllowsBurstThenBlocks(t *testing.T) {
	t.Parallel()

	l := NewLocalLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("user:a"))
	assert.True(t, l.Allow("user:a"))
	assert.True(t, l.Allow("user:a"))
	assert.False(t, l.Allow("user:a"))

	// Keys are independent
	assert.True(t, l.Allow("user:b"))
	assert.Equal(t, 2, l.Len())
}

func TestLocalLimiter_Refills(t *testing.T) {
	t.Parallel()

	l := NewLocalLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	now = now.Add(31 * time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}
