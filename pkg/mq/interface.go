package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ClientInterface defines the interface for message queue operations. It
// exists so the ingestion consumer and the simulator can be wired against a
// test double.
type ClientInterface interface {
	// Push publishes data onto the queue and waits for broker confirmation,
	// retrying with exponential backoff while the client reconnects. The
	// context bounds the whole attempt.
	Push(ctx context.Context, data []byte) error

	// Consume continuously puts queue items on the returned channel. The
	// receiver must Ack each delivery after processing it, or Nack it to
	// requeue.
	Consume() (<-chan amqp.Delivery, error)

	// Close cleanly shuts down the channel and connection.
	Close() error
}

// Ensure Client implements ClientInterface.
var _ ClientInterface = (*Client)(nil)
