package queue

import "github.com/nats-io/nats.go"

// Test-only helpers while constructors are unexported.

func NewNATSQueueWithConn(conn *nats.Conn) (*NATSQueue, error) {
	return newNATSQueueWithConn(conn)
}

func NewMemoryQueue() *MemoryQueue {
	return newMemoryQueue()
}
