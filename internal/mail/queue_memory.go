package mail

import (
	"context"

	"github.com/markdevonuk/portal/pkg/platform/sentinel"
)

// MemoryQueue is a channel-backed queue for tests and single-process
// deployments without Redis.
type MemoryQueue struct {
	messages chan Message
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{messages: make(chan Message, size)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg Message) error {
	select {
	case q.messages <- msg:
		return nil
	default:
		// A full queue is an availability fact, not a caller error.
		return sentinel.ErrUnavailable
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-q.messages:
		return msg, nil
	}
}

// Len reports the number of queued messages. Test helper.
func (q *MemoryQueue) Len() int { return len(q.messages) }
