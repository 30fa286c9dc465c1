// Package ingest bridges the reading queue to the persistence layer: it
// consumes JSON reading payloads from RabbitMQ and stores them through the
// readings repository.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/aquamon/internal/store"
	"procodus.dev/aquamon/pkg/metrics"
	"procodus.dev/aquamon/pkg/mq"
	"procodus.dev/aquamon/pkg/telemetry"
)

// Consumer consumes reading messages from RabbitMQ and persists them.
type Consumer struct {
	logger    *slog.Logger
	store     *store.Store
	mqClient  mq.ClientInterface
	metrics   *metrics.ConsumerMetrics // optional
	queueName string
	done      chan struct{}
}

// Config holds the configuration for the Consumer.
type Config struct {
	Logger      *slog.Logger
	Store       *store.Store
	Metrics     *metrics.ConsumerMetrics
	RabbitMQURL string
	QueueName   string
}

// New creates a new Consumer instance.
func New(cfg *Config) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq URL cannot be empty")
	}

	if cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	mqClient := mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger)

	return &Consumer{
		logger:    cfg.Logger,
		store:     cfg.Store,
		mqClient:  mqClient,
		metrics:   cfg.Metrics,
		queueName: cfg.QueueName,
		done:      make(chan struct{}),
	}, nil
}

// Start begins consuming messages from RabbitMQ.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting consumer", "queue", c.queueName)

	// Give the MQ client's background connect loop time to settle.
	time.Sleep(2 * time.Second)

	deliveries, err := c.mqClient.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer started, waiting for readings")

	go c.processMessages(ctx, deliveries)

	return nil
}

// processMessages drains the deliveries channel until it closes or the
// context is canceled.
func (c *Consumer) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping message processing")
			close(c.done)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				close(c.done)
				return
			}

			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery processes a single message. Undecodable or out-of-range
// payloads are acked and dropped so they cannot poison the queue;
// persistence failures are nacked for redelivery.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var timer *prometheus.Timer
	if c.metrics != nil {
		timer = prometheus.NewTimer(c.metrics.ProcessingDuration.WithLabelValues(c.queueName))
		defer timer.ObserveDuration()
	}

	reading, err := telemetry.Unmarshal(delivery.Body)
	if err != nil {
		c.logger.Error("failed to decode reading payload", "error", err)
		c.drop(delivery, "decode_error")
		return
	}

	c.logger.Debug("received sensor reading",
		"temperature", reading.Temperature,
		"ph", reading.PH,
		"tds_level", reading.TDSLevel,
	)

	_, err = c.store.CreateReading(ctx, store.NewReading{
		Timestamp:   reading.Timestamp,
		Temperature: reading.Temperature,
		PH:          reading.PH,
		TDSLevel:    reading.TDSLevel,
	})
	if err != nil {
		if store.IsValidation(err) {
			c.logger.Warn("dropping out-of-range reading", "error", err)
			c.drop(delivery, "validation_error")
			return
		}

		c.logger.Error("failed to persist reading", "error", err)
		if c.metrics != nil {
			c.metrics.ProcessingFailures.WithLabelValues(c.queueName, "persistence_error").Inc()
			c.metrics.MessagesTotal.WithLabelValues(c.queueName, "error").Inc()
		}
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
		return
	}

	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues(c.queueName, "success").Inc()
	}
}

// drop acks a poison message so it is not redelivered.
func (c *Consumer) drop(delivery amqp.Delivery, reason string) {
	if c.metrics != nil {
		c.metrics.ProcessingFailures.WithLabelValues(c.queueName, reason).Inc()
		c.metrics.MessagesTotal.WithLabelValues(c.queueName, "dropped").Inc()
	}
	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
	}
}

// Stop stops the consumer and closes the MQ client.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumer")

	if err := c.mqClient.Close(); err != nil {
		return fmt.Errorf("failed to close mq client: %w", err)
	}

	<-c.done

	c.logger.Info("consumer stopped")
	return nil
}
