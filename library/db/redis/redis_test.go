package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	mr := miniredis.RunT(t)

	db, err := NewDB(context.Background(), &redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Client().Set(context.Background(), KeyLiveStream, "x", 0).Err())
	require.True(t, mr.Exists("newsroom/live_stream/active"))
}

func TestNewDBUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewDB(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
}
