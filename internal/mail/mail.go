// Package mail implements the outbound mail queue. Producers drop Message
// documents into a queue and never wait for delivery; a worker drains the
// queue and hands messages to a Sender.
package mail

import (
	"context"
	"time"
)

// Message is one queued mail document.
type Message struct {
	ID         string    `json:"id"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Text       string    `json:"text,omitempty"`
	HTML       string    `json:"html,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Queue is the delivery queue. Enqueue must return promptly; delivery
// confirmation is never reported back to producers.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
	// Dequeue blocks until a message is available or ctx is done.
	Dequeue(ctx context.Context) (Message, error)
}

// Sender performs the actual delivery of a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
