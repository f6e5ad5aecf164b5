package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisDeadLetter 以 Redis list 保存死信任务，LPUSH 入队、RPOP 出队
type RedisDeadLetter struct {
	rdb *redis.Client
	key string
}

// NewRedisDeadLetter 创建 Redis 死信队列
func NewRedisDeadLetter(rdb *redis.Client, key string) *RedisDeadLetter {
	return &RedisDeadLetter{rdb: rdb, key: key}
}

func (d *RedisDeadLetter) Push(ctx context.Context, task CleanupTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, d.key, payload).Err()
}

// Drain 取出最多 max 个最早入队的任务
func (d *RedisDeadLetter) Drain(ctx context.Context, max int) ([]CleanupTask, error) {
	tasks := make([]CleanupTask, 0, max)
	for len(tasks) < max {
		raw, err := d.rdb.RPop(ctx, d.key).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return tasks, err
		}
		var task CleanupTask
		if err := json.Unmarshal(raw, &task); err != nil {
			// 无法解析的记录直接丢弃
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Len 死信积压数量
func (d *RedisDeadLetter) Len(ctx context.Context) (int64, error) {
	return d.rdb.LLen(ctx, d.key).Result()
}
