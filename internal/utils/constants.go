package utils

import "time"

// HTTP timeouts
const (
	// DefaultRequestTimeout bounds a single analysis request end to end
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long the API server drains in-flight requests
	ShutdownTimeout = 10 * time.Second
)

// Event publishing
const (
	// EventPublishTimeout bounds a best-effort analysis event publish
	EventPublishTimeout = 5 * time.Second

	// DefaultMaxRetries is the number of publish attempts per event
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the backoff between publish attempts
	DefaultRetryBackoff = 100 * time.Millisecond
)

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
