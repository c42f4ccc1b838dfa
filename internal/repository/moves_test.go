package repo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boardduel/internal/usecase/relay"
)

func newMoveLog(t *testing.T) (*MoveLogRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMoveLogRepository(zap.NewNop().Sugar(), client, time.Hour), srv
}

func TestMoveLogAppendAndFinish(t *testing.T) {
	repo, srv := newMoveLog(t)
	ctx := context.Background()

	first := json.RawMessage(`{"fromR":5,"fromC":0,"move":{"r":4,"c":1,"type":"move"}}`)
	second := json.RawMessage(`{"fromR":2,"fromC":1,"move":{"r":3,"c":0,"type":"move"}}`)
	require.NoError(t, repo.AppendMove(ctx, "MATCH1", first))
	require.NoError(t, repo.AppendMove(ctx, "MATCH1", second))

	moves, err := repo.Moves(ctx, "MATCH1")
	require.NoError(t, err)
	require.Equal(t, []json.RawMessage{first, second}, moves)
	require.Equal(t, time.Hour, srv.TTL("room:MATCH1:moves"))

	require.NoError(t, repo.Finish(ctx, relay.MatchRecord{Code: "MATCH1"}))
	require.False(t, srv.Exists("room:MATCH1:moves"))

	moves, err = repo.Moves(ctx, "MATCH1")
	require.NoError(t, err)
	require.Empty(t, moves)
}

func TestMoveLogReportsRedisFailure(t *testing.T) {
	repo, srv := newMoveLog(t)
	srv.Close()
	require.Error(t, repo.AppendMove(context.Background(), "X", json.RawMessage(`{}`)))
}
