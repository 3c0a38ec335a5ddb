package cache

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

func newMiniredisConfig(t *testing.T) (*miniredis.Miniredis, config.CacheConfig) {
	t.Helper()
	mr := miniredis.RunT(t)
	host, port, found := strings.Cut(mr.Addr(), ":")
	require.True(t, found)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return mr, config.CacheConfig{Host: host, Port: p}
}

func TestNewClientAndPing(t *testing.T) {
	mr, cfg := newMiniredisConfig(t)

	client := NewClient(cfg)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, Ping(context.Background(), client))

	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Error(t, Ping(ctx, client))
}

func TestLimiterStorageUsesSeparateDatabase(t *testing.T) {
	mr, cfg := newMiniredisConfig(t)

	client := NewClient(cfg)
	t.Cleanup(func() { _ = client.Close() })

	storage := NewLimiterStorage(client)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Set("limiter:127.0.0.1", []byte("3"), time.Minute))

	got, err := storage.Get("limiter:127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)

	assert.True(t, mr.DB(limiterDatabase).Exists("limiter:127.0.0.1"))
	assert.False(t, mr.DB(0).Exists("limiter:127.0.0.1"))
}
