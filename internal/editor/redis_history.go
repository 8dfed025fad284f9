package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHistory 用 redis 的 list 保存撤销记录，每份排班表一个 key，最后一次编辑后 expiration 过期
type RedisHistory struct {
	client     redis.Cmdable
	depth      int
	expiration time.Duration
}

func NewRedisHistory(client redis.Cmdable, depth int, expiration time.Duration) *RedisHistory {
	return &RedisHistory{
		client:     client,
		depth:      depth,
		expiration: expiration,
	}
}

func undoKey(rosterID int64) string {
	return fmt.Sprintf("roster_%d_undo", rosterID)
}

func (h *RedisHistory) Push(ctx context.Context, rosterID int64, op Operation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	key := undoKey(rosterID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if h.depth > 0 {
		// 只保留最近的 depth 条记录
		pipe.LTrim(ctx, key, int64(-h.depth), -1)
	}
	if h.expiration > 0 {
		pipe.Expire(ctx, key, h.expiration)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) Pop(ctx context.Context, rosterID int64) (Operation, error) {
	data, err := h.client.RPop(ctx, undoKey(rosterID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Operation{}, ErrNothingToUndo
		}
		return Operation{}, err
	}

	op := Operation{}
	if err := json.Unmarshal(data, &op); err != nil {
		return Operation{}, fmt.Errorf("无法解析撤销记录: %w", err)
	}
	return op, nil
}

func (h *RedisHistory) Clear(ctx context.Context, rosterID int64) error {
	return h.client.Del(ctx, undoKey(rosterID)).Err()
}
