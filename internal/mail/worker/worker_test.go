package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdevonuk/portal/internal/mail"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []mail.Message
	failWith error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		err := s.failWith
		s.failWith = nil
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) delivered() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.sent...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestWorkerDeliversQueuedMail(t *testing.T) {
	queue := mail.NewMemoryQueue(8)
	sender := &recordingSender{}
	w := New(queue, sender, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, queue.Enqueue(ctx, mail.Message{To: "admin@example.org", Subject: "New submission"}))
	require.NoError(t, queue.Enqueue(ctx, mail.Message{To: "admin@example.org", Subject: "Resubmission"}))

	require.Eventually(t, func() bool {
		return len(sender.delivered()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerDropsFailedDeliveryAndContinues(t *testing.T) {
	queue := mail.NewMemoryQueue(8)
	sender := &recordingSender{failWith: errors.New("api down")}
	w := New(queue, sender, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, queue.Enqueue(ctx, mail.Message{To: "a@example.org", Subject: "first"}))
	require.NoError(t, queue.Enqueue(ctx, mail.Message{To: "b@example.org", Subject: "second"}))

	require.Eventually(t, func() bool {
		return len(sender.delivered()) == 1
	}, time.Second, 5*time.Millisecond)

	delivered := sender.delivered()
	assert.Equal(t, "second", delivered[0].Subject)
}
