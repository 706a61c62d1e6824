package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_PerHost(t *testing.T) {
	l := NewLimiter(1, 1)

	assert.True(t, l.Allow("https://a.example/x"))
	assert.False(t, l.Allow("https://a.example/y"))
	assert.True(t, l.Allow("https://b.example/x"))
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 0)

	for i := 0; i < 50; i++ {
		require.True(t, l.Allow("https://api.example/v1"))
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(0.01, 1)
	require.NoError(t, l.Wait(context.Background(), "https://api.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx, "https://api.example"))
}

func TestLimiter_BadURL(t *testing.T) {
	l := NewLimiter(1, 1)
	assert.Error(t, l.Wait(context.Background(), "://bad"))
	assert.False(t, l.Allow("://bad"))
}
