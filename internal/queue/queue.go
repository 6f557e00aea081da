package queue

import "context"

// HeaderEncoding names the message header carrying the payload compression
const HeaderEncoding = "Content-Encoding"

// Message is a single analysis event on the wire
type Message struct {
	Subject  string
	Data     []byte
	Encoding string // compression algorithm applied to Data, empty for none
}

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to msg.Subject
	Publish(ctx context.Context, msg Message) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with a handler
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages
type MessageHandler func(msg Message) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}
