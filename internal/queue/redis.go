package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisFieldData     = "data"
	redisFieldEncoding = "encoding"

	redisReadCount   = 100
	redisReadBlock   = 5 * time.Second
	redisClaimIdle   = 30 * time.Second // matches the NATS AckWait
	redisDefaultMaxN = 10000
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string
	DB       int
	Stream   string // Stream prefix (default: "cosinor")
	Group    string // Consumer group name (default: "cosinor-group")
	Consumer string // Consumer name (default: hostname-pid)
	MaxLen   int64  // Approximate per-stream cap, older events are trimmed
}

func (c *RedisConfig) applyDefaults() {
	if c.Stream == "" {
		c.Stream = "cosinor"
	}
	if c.Group == "" {
		c.Group = "cosinor-group"
	}
	if c.MaxLen <= 0 {
		c.MaxLen = redisDefaultMaxN
	}
	if c.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer"
		}
		c.Consumer = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}
}

// RedisQueue carries analysis events over Redis Streams, one stream per subject
type RedisQueue struct {
	client        *redis.Client
	config        RedisConfig
	subscriptions map[string]context.CancelFunc
	mu            sync.Mutex
}

func newRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// plain host:port
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	cfg.applyDefaults()
	return &RedisQueue{
		client:        client,
		config:        cfg,
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

// Publish appends an event to the subject's stream, trimming it to MaxLen
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	if msg.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	stream := q.streamName(msg.Subject)

	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: q.config.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			redisFieldData:     msg.Data,
			redisFieldEncoding: msg.Encoding,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", stream, err)
	}
	return nil
}

// Subscribe consumes the subject's stream through the consumer group.
// Entries the handler rejects stay pending and are reclaimed after
// redisClaimIdle.
func (q *RedisQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	stream := q.streamName(subject)
	ctx, cancel := context.WithCancel(context.Background())

	err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
	}

	q.subscriptions[subject] = cancel
	go q.consume(ctx, subject, stream, handler)
	return nil
}

func (q *RedisQueue) consume(ctx context.Context, subject, stream string, handler MessageHandler) {
	claimFrom := "0-0"
	for ctx.Err() == nil {
		claimed, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			MinIdle:  redisClaimIdle,
			Start:    claimFrom,
			Count:    redisReadCount,
		}).Result()
		if err == nil {
			q.deliver(ctx, subject, stream, claimed, handler)
			claimFrom = next
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    redisReadCount,
			Block:    redisReadBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() == nil {
				continue
			}
			return
		}
		for _, s := range streams {
			q.deliver(ctx, subject, stream, s.Messages, handler)
		}
	}
}

func (q *RedisQueue) deliver(ctx context.Context, subject, stream string, entries []redis.XMessage, handler MessageHandler) {
	for _, m := range entries {
		data, ok := m.Values[redisFieldData].(string)
		if !ok {
			// not one of ours
			q.client.XAck(ctx, stream, q.config.Group, m.ID)
			continue
		}
		encoding, _ := m.Values[redisFieldEncoding].(string)

		if err := handler(Message{Subject: subject, Data: []byte(data), Encoding: encoding}); err != nil {
			continue
		}
		q.client.XAck(ctx, stream, q.config.Group, m.ID)
	}
}

// Unsubscribe stops consuming subject
func (q *RedisQueue) Unsubscribe(subject string) error {
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

// Close stops every consumer and closes the client
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	return q.client.Close()
}
