package queue

import (
	"context"
	"fmt"
	"sync"
)

const memoryBufferSize = 1024

// MemoryQueue implements Queue using in-memory channels.
// Used in tests and single-process deployments.
type MemoryQueue struct {
	channels      map[string]chan Message
	subscriptions map[string]context.CancelFunc
	mu            sync.RWMutex
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan Message),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

func (q *MemoryQueue) channel(subject string) chan Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, exists := q.channels[subject]; exists {
		return ch
	}
	ch := make(chan Message, memoryBufferSize)
	q.channels[subject] = ch
	return ch
}

// Publish enqueues a copy of msg; it fails instead of blocking when the subject is full
func (q *MemoryQueue) Publish(ctx context.Context, msg Message) error {
	if msg.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	ch := q.channel(msg.Subject)

	data := make([]byte, len(msg.Data))
	copy(data, msg.Data)
	msg.Data = data

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", msg.Subject)
	}
}

// Subscribe starts delivering messages for subject to handler
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	ch := q.channel(subject)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.subscriptions[subject] = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// handler errors drop the message, there is no redelivery in memory
				_ = handler(msg)
			}
		}
	}()

	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close cancels all subscriptions and closes all channels
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	for subject, ch := range q.channels {
		close(ch)
		delete(q.channels, subject)
	}
	return nil
}

// Pending returns the number of undelivered messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if ch, exists := q.channels[subject]; exists {
		return len(ch)
	}
	return 0
}
