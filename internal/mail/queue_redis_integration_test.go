//go:build integration

package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdevonuk/portal/pkg/testutil/containers"
)

func TestRedisQueueRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	queue := NewRedisQueue(rc.Client)
	ctx := context.Background()

	enqueued := Message{
		ID:         "m1",
		To:         "admins@example.org",
		Subject:    "Profile submitted for review",
		Text:       "Volunteer vol-1 submitted their profile for review.",
		EnqueuedAt: time.Date(2026, time.March, 5, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, queue.Enqueue(ctx, enqueued))

	dequeued, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, enqueued, dequeued)
}

func TestRedisQueueOrderingAndCancellation(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	queue := NewRedisQueue(rc.Client)
	ctx := context.Background()

	for _, subject := range []string{"first", "second"} {
		require.NoError(t, queue.Enqueue(ctx, Message{Subject: subject}))
	}

	first, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Subject)

	second, err := queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", second.Subject)

	// An empty queue unblocks when the context is cancelled.
	cancelCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = queue.Dequeue(cancelCtx)
	require.Error(t, err)
}
