package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDeduper(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	d := NewRedisDeduper(client, time.Hour)
	ctx := context.Background()

	first, err := d.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := d.MarkProcessed(ctx, "whatsapp", "wamid.2")
	require.NoError(t, err)
	assert.True(t, other)

	assert.Equal(t, time.Hour, mr.TTL(dedupKey("whatsapp", "wamid.1")))

	mr.FastForward(2 * time.Hour)
	expired, err := d.MarkProcessed(ctx, "whatsapp", "wamid.1")
	require.NoError(t, err)
	assert.True(t, expired, "ids are forgotten after the ttl")
}

func TestRedisDeduperError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, err := NewRedisDeduper(client, 0).MarkProcessed(context.Background(), "whatsapp", "wamid.1")
	assert.Error(t, err)
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper(0)
	ctx := context.Background()

	first, _ := d.MarkProcessed(ctx, "whatsapp", "wamid.1")
	again, _ := d.MarkProcessed(ctx, "whatsapp", "wamid.1")
	other, _ := d.MarkProcessed(ctx, "other", "wamid.1")

	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other, "providers are namespaced")
}
