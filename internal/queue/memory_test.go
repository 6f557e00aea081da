package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	var (
		mu       sync.Mutex
		received []Message
	)
	done := make(chan struct{})

	err := q.Subscribe("cosinor.runs", func(msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		if len(received) == 2 {
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	ctx := context.Background()
	if err := q.Publish(ctx, Message{Subject: "cosinor.runs", Data: []byte("first")}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := q.Publish(ctx, Message{Subject: "cosinor.runs", Data: []byte("second"), Encoding: "zstd"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for messages")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received[0].Data) != "first" || string(received[1].Data) != "second" {
		t.Errorf("Expected ordered delivery, got %q then %q", received[0].Data, received[1].Data)
	}
	if received[1].Encoding != "zstd" {
		t.Errorf("Expected encoding zstd, got %q", received[1].Encoding)
	}
	if received[0].Subject != "cosinor.runs" {
		t.Errorf("Expected subject cosinor.runs, got %q", received[0].Subject)
	}
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	data := []byte("event")
	if err := q.Publish(context.Background(), Message{Subject: "s", Data: data}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	data[0] = 'X'

	got := make(chan Message, 1)
	if err := q.Subscribe("s", func(msg Message) error {
		got <- msg
		return nil
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case msg := <-got:
		if string(msg.Data) != "event" {
			t.Errorf("Expected copied data 'event', got %q", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for message")
	}
}

func TestMemoryQueue_Pending(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	for i := 0; i < 3; i++ {
		if err := q.Publish(context.Background(), Message{Subject: "pending", Data: []byte{byte(i)}}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	if n := q.Pending("pending"); n != 3 {
		t.Errorf("Expected 3 pending messages, got %d", n)
	}
	if n := q.Pending("other"); n != 0 {
		t.Errorf("Expected 0 pending messages, got %d", n)
	}
}

func TestMemoryQueue_ChannelFull(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	for i := 0; i < memoryBufferSize; i++ {
		if err := q.Publish(ctx, Message{Subject: "full"}); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	if err := q.Publish(ctx, Message{Subject: "full"}); err == nil {
		t.Error("Expected error when channel is full")
	}
}

func TestMemoryQueue_Errors(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	if err := q.Publish(context.Background(), Message{}); err == nil {
		t.Error("Expected error for empty subject")
	}

	handler := func(Message) error { return nil }
	if err := q.Subscribe("dup", handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := q.Subscribe("dup", handler); err == nil {
		t.Error("Expected error for duplicate subscription")
	}
	if err := q.Unsubscribe("dup"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := q.Unsubscribe("dup"); err == nil {
		t.Error("Expected error when not subscribed")
	}
}

func TestMemoryQueue_CancelledContext(t *testing.T) {
	q := NewMemoryQueue()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	for i := 0; i < memoryBufferSize; i++ {
		_ = q.Publish(ctx, Message{Subject: "c"})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Publish(cancelled, Message{Subject: "c"}); err == nil {
		t.Error("Expected error publishing on a full channel with cancelled context")
	}
}
