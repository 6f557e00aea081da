package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const natsStreamPrefix = "cosinor-"

// NATSConfig represents NATS JetStream connection settings
type NATSConfig struct {
	URL      string
	Username string
	Password string
}

// NATSQueue implements Queue using NATS JetStream
type NATSQueue struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	streams       map[string]struct{}
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

func newNATSQueue(cfg NATSConfig) (*NATSQueue, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("cosinor")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		streams:       make(map[string]struct{}),
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// ensureStream creates the backing stream for subject on first use
func (q *NATSQueue) ensureStream(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.streams[subject]; ok {
		return nil
	}

	name := natsStreamPrefix + sanitizeName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}

	q.streams[subject] = struct{}{}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSQueue) Publish(ctx context.Context, msg Message) error {
	if err := q.ensureStream(msg.Subject); err != nil {
		return err
	}

	m := nats.NewMsg(msg.Subject)
	m.Data = msg.Data
	if msg.Encoding != "" {
		m.Header.Set(HeaderEncoding, msg.Encoding)
	}

	if _, err := q.js.PublishMsg(m, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", msg.Subject, err)
	}
	return nil
}

// Subscribe subscribes with a durable consumer and manual acks.
// Handler errors NAK the message so it is redelivered, at most three times.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	sub, err := q.js.Subscribe(subject, func(m *nats.Msg) {
		msg := Message{Subject: m.Subject, Data: m.Data}
		if m.Header != nil {
			msg.Encoding = m.Header.Get(HeaderEncoding)
		}
		if err := handler(msg); err != nil {
			_ = m.Nak()
			return
		}
		_ = m.Ack()
	},
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(100),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	delete(q.subscriptions, subject)
	return nil
}

// Close closes the NATS connection and all subscriptions
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, sub := range q.subscriptions {
		_ = sub.Unsubscribe()
		delete(q.subscriptions, subject)
	}
	q.conn.Close()
	return nil
}

// sanitizeName maps a subject onto the stream/consumer name alphabet
// (A-Z, a-z, 0-9, dash, underscore).
func sanitizeName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
