package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"boardduel/internal/usecase/relay"
)

// MoveLogRepository keeps the descriptors relayed in each room as a redis
// list. Lists expire on their own so abandoned rooms leave nothing behind.
type MoveLogRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
	ttl   time.Duration
}

func NewMoveLogRepository(log *zap.SugaredLogger, redis *redis.Client, ttl time.Duration) *MoveLogRepository {
	return &MoveLogRepository{
		log:   log,
		redis: redis,
		ttl:   ttl,
	}
}

func movesKey(code string) string {
	return fmt.Sprintf("room:%s:moves", code)
}

func (r *MoveLogRepository) AppendMove(ctx context.Context, code string, move json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := movesKey(code)
	pipe := r.redis.TxPipeline()
	pipe.RPush(ctx, key, []byte(move))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append move to %s: %w", key, err)
	}
	return nil
}

func (r *MoveLogRepository) Moves(ctx context.Context, code string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	vals, err := r.redis.LRange(ctx, movesKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load moves of %s: %w", code, err)
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}

// Finish drops the live list; the archive holds the finished match.
func (r *MoveLogRepository) Finish(ctx context.Context, rec relay.MatchRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.redis.Del(ctx, movesKey(rec.Code)).Err(); err != nil {
		return fmt.Errorf("drop moves of %s: %w", rec.Code, err)
	}
	r.log.Debugf("move log of room %s dropped", rec.Code)
	return nil
}
