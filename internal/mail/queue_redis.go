package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKey = "portal:mail:queue"

// RedisQueue is the hosted queue collection: LPUSH to enqueue, blocking
// BRPOP to drain. Messages survive process restarts.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}
	if err := q.client.LPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue mail message: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		// Short poll interval so worker shutdown stays responsive.
		result, err := q.client.BRPop(ctx, 2*time.Second, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("dequeue mail message: %w", err)
		}

		var msg Message
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			return Message{}, fmt.Errorf("decode mail message: %w", err)
		}
		return msg, nil
	}
}
