// Package queue is the Redis list that carries render job ids from the API
// to the worker.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultName is the list used when none is configured.
const DefaultName = "cosmos:renders"

type RedisQueue struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisQueue(rdb *redis.Client, queueName string) *RedisQueue {
	if queueName == "" {
		queueName = DefaultName
	}
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Name returns the Redis key of the list.
func (q *RedisQueue) Name() string { return q.queueName }

// Push enqueues a job id (LPUSH).
func (q *RedisQueue) Push(ctx context.Context, jobID int64) error {
	return q.rdb.LPush(ctx, q.queueName, strconv.FormatInt(jobID, 10)).Err()
}

// Pop blocks up to timeout for the oldest job id (BRPOP). A zero timeout
// blocks until an element arrives or ctx ends. It returns 0 when the wait
// timed out without an element.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (int64, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	if len(res) < 2 {
		return 0, nil
	}

	id, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("queue %s: invalid job id %q", q.queueName, res[1])
	}
	return id, nil
}

// Len returns the number of queued job ids.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queueName).Result()
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
