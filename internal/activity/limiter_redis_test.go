package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/testutil"
)

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	l := NewRedisLimiter(client)

	ok, err := l.Allow(ctx, "afk:s-1", 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Allow(ctx, "afk:s-1", 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	// Another replica sharing the same Redis sees the cooldown too.
	other := NewRedisLimiter(client)
	ok, err = other.Allow(ctx, "afk:s-1", 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, other.Reset(ctx, "afk:s-1"))
	ok, err = l.Allow(ctx, "afk:s-1", 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		ok, err := l.Allow(ctx, "afk:s-1", 200*time.Millisecond)
		return err == nil && ok
	}, 3*time.Second, 50*time.Millisecond)
}
