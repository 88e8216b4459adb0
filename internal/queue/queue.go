package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gvasconcelos/thumbsvc/internal/config"
	"github.com/gvasconcelos/thumbsvc/pkg/models"
)

const (
	PreloadQueueName = "thumbnail_preload"
	ExchangeName     = "thumbnails"
)

// Queue carries preload jobs from the API to the worker
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// New creates a new queue client
func New(cfg config.QueueConfig) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		PreloadQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		PreloadQueueName,
		PreloadQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Queue{
		conn:    conn,
		channel: channel,
	}, nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishPreload publishes a preload job to the worker queue
func (q *Queue) PublishPreload(ctx context.Context, job *models.PreloadJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal preload job: %w", err)
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		PreloadQueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish preload job: %w", err)
	}

	return nil
}

// PreloadHandler processes a single preload job
type PreloadHandler func(job *models.PreloadJob) error

// ConsumePreloads delivers preload jobs to the handler until ctx is
// cancelled. A handler error rejects the message without requeue; a
// malformed message is dropped.
func (q *Queue) ConsumePreloads(ctx context.Context, handler PreloadHandler) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := q.channel.Consume(
		PreloadQueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var job models.PreloadJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				delivery.Reject(false)
				continue
			}

			if err := handler(&job); err != nil {
				delivery.Reject(false)
				continue
			}

			delivery.Ack(false)
		}
	}
}
