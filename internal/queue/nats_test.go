package queue

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/soltixdb/cosinor/internal/config"
)

// setupTestNATS creates an embedded NATS server for testing
func setupTestNATS(t *testing.T) (string, func()) {
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	cleanup := func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
	return ns.ClientURL(), cleanup
}

func TestNATSQueue_PublishSubscribe(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := NewQueue(config.EventsConfig{Type: "nats", URL: url})
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	// published before anyone subscribes, replayed by the durable consumer
	err = q.Publish(context.Background(), Message{Subject: "cosinor.runs", Data: []byte("event-1"), Encoding: "snappy"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := make(chan Message, 1)
	if err := q.Subscribe("cosinor.runs", func(msg Message) error {
		got <- msg
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case msg := <-got:
		if string(msg.Data) != "event-1" {
			t.Errorf("Expected event-1, got %q", msg.Data)
		}
		if msg.Encoding != "snappy" {
			t.Errorf("Expected snappy encoding header, got %q", msg.Encoding)
		}
		if msg.Subject != "cosinor.runs" {
			t.Errorf("Expected subject cosinor.runs, got %q", msg.Subject)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for message")
	}
}

func TestNATSQueue_StreamCreated(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	conn, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	q, err := NewNATSQueueWithConn(conn)
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if err := q.Publish(context.Background(), Message{Subject: "cosinor.runs", Data: []byte("x")}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	info, err := q.js.StreamInfo("cosinor-cosinor_runs")
	if err != nil {
		t.Fatalf("Expected stream to exist: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("Expected 1 stored message, got %d", info.State.Msgs)
	}
}

func TestNATSQueue_Unsubscribe(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	q, err := NewQueue(config.EventsConfig{Type: "nats", URL: url})
	if err != nil {
		t.Fatalf("Failed to create NATS queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	handler := func(Message) error { return nil }
	if err := q.Subscribe("cosinor.unsub", handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Subscribe("cosinor.unsub", handler); err == nil {
		t.Error("Expected error for duplicate subscription")
	}
	if err := q.Unsubscribe("cosinor.unsub"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("cosinor.unsub"); err == nil {
		t.Error("Expected error when not subscribed")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cosinor.runs", "cosinor_runs"},
		{"a.b.*", "a_b__"},
		{"plain-name_1", "plain-name_1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.input); got != tt.expected {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
