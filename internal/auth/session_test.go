package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "s1", &Session{UserID: "u1", Email: "a@example.com"}, time.Hour))
	require.NoError(t, store.Save(ctx, "s2", &Session{UserID: "u2"}, 2*time.Hour))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, now.Add(time.Hour), got.ExpiresAt)

	now = now.Add(90 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, store.sweep())

	require.NoError(t, store.Delete(ctx, "missing"))
	_, err = store.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client)

	require.NoError(t, store.Save(ctx, "abc", &Session{UserID: "u1", Email: "a@example.com"}, time.Hour))
	assert.True(t, mr.Exists("adlens:session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("adlens:session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "a@example.com", got.Email)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "def", &Session{UserID: "u2"}, time.Hour))
	require.NoError(t, store.Delete(ctx, "def"))
	_, err = store.Get(ctx, "def")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
