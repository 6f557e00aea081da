package queue

import (
	"testing"

	"github.com/soltixdb/cosinor/internal/config"
)

func TestNewQueue_Memory(t *testing.T) {
	q, err := NewQueue(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("Expected *MemoryQueue, got %T", q)
	}
}

func TestNewQueue_CaseInsensitive(t *testing.T) {
	q, err := NewQueue(config.EventsConfig{Type: "MEMORY"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	_ = q.Close()
}

func TestNewQueue_Unsupported(t *testing.T) {
	if _, err := NewQueue(config.EventsConfig{Type: "rabbitmq"}); err == nil {
		t.Error("Expected error for unsupported queue type")
	}
}

func TestNewQueue_KafkaWithoutBrokers(t *testing.T) {
	if _, err := NewQueue(config.EventsConfig{Type: "kafka"}); err == nil {
		t.Error("Expected error for kafka without brokers")
	}
}

func TestNewQueue_KafkaBrokersFromURL(t *testing.T) {
	q, err := NewQueue(config.EventsConfig{Type: "kafka", URL: "localhost:9092,localhost:9093"})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer func() { _ = q.Close() }()

	kq, ok := q.(*KafkaQueue)
	if !ok {
		t.Fatalf("Expected *KafkaQueue, got %T", q)
	}
	if len(kq.config.Brokers) != 2 {
		t.Errorf("Expected 2 brokers, got %v", kq.config.Brokers)
	}
	if kq.config.GroupID != "cosinor-group" {
		t.Errorf("Expected default group, got %s", kq.config.GroupID)
	}
}

func TestNewQueue_NATSUnavailable(t *testing.T) {
	_, err := NewQueue(config.EventsConfig{Type: "nats", URL: "nats://127.0.0.1:1"})
	if err == nil {
		t.Error("Expected connection error")
	}
}

func TestNewPublisherAndSubscriber(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	_ = p.Close()

	s, err := NewSubscriber(config.EventsConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewSubscriber failed: %v", err)
	}
	_ = s.Close()
}
