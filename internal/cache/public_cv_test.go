package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*PublicCV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPublicCV(client, ttl), mr
}

func TestPublicCVRoundTrip(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "jdoe", "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "jdoe", "", []byte(`{"default":true}`)))
	require.NoError(t, c.Set(ctx, "jdoe", "rov", []byte(`{"slug":"rov"}`)))

	data, ok, err := c.Get(ctx, "jdoe", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"default":true}`, string(data))

	fields, err := mr.HKeys("cv:public:jdoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"\x00default", "rov"}, fields)
	assert.Equal(t, time.Minute, mr.TTL("cv:public:jdoe"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "jdoe", "rov")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPublicCVDefaultFieldUnreachableBySlug(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "jdoe", "", []byte(`{"default":true}`)))

	for _, slug := range []string{"_", "default", "-"} {
		_, ok, err := c.Get(ctx, "jdoe", slug)
		require.NoError(t, err)
		assert.False(t, ok, slug)
	}
}

func TestPublicCVInvalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "jdoe", "rov", []byte(`{}`)))
	require.NoError(t, c.Set(ctx, "other", "", []byte(`{}`)))
	require.NoError(t, c.Invalidate(ctx, "jdoe"))

	assert.False(t, mr.Exists("cv:public:jdoe"))
	assert.True(t, mr.Exists("cv:public:other"))
	assert.NoError(t, c.Invalidate(ctx, ""))
}

func TestPublicCVDisabledWithZeroTTL(t *testing.T) {
	c, mr := newTestCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "jdoe", "", []byte(`{}`)))
	assert.False(t, mr.Exists("cv:public:jdoe"))
	_, ok, err := c.Get(ctx, "jdoe", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
