package feed

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheHandler(t *testing.T) (*Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHandler(nil, zerolog.Nop(), client), mr
}

func TestFeedCacheRoundTrip(t *testing.T) {
	h, mr := newCacheHandler(t)
	ctx := context.Background()

	assert.Nil(t, h.fromCache(ctx, "feed:remote"))

	body := []byte(`{"services":[],"located":false}`)
	h.toCache(ctx, "feed:remote", body)
	assert.Equal(t, body, h.fromCache(ctx, "feed:remote"))

	ttl := mr.TTL("feed:remote")
	require.Equal(t, cacheTTL, ttl)
}

func TestFeedCacheExpires(t *testing.T) {
	h, mr := newCacheHandler(t)
	ctx := context.Background()

	h.toCache(ctx, "feed:cell:abc", []byte(`{"services":[]}`))
	mr.FastForward(cacheTTL + 1)
	assert.Nil(t, h.fromCache(ctx, "feed:cell:abc"))
}

func TestFeedCacheNilClient(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop(), nil)
	ctx := context.Background()

	h.toCache(ctx, "feed:remote", []byte("x"))
	assert.Nil(t, h.fromCache(ctx, "feed:remote"))
}
