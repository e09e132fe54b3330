package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/metrics"
)

// AMQPBroadcastQueue реализует очередь рассылок поверх RabbitMQ.
type AMQPBroadcastQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewAMQPBroadcastQueue подключается к брокеру и объявляет durable-очередь.
func NewAMQPBroadcastQueue(url, queue string) (*AMQPBroadcastQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPBroadcastQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *AMQPBroadcastQueue) Enqueue(ctx context.Context, job domain.BroadcastJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *AMQPBroadcastQueue) Pop(ctx context.Context) (domain.BroadcastJob, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.BroadcastJob{}, fmt.Errorf("consume: %w", err)
		}
		q.deliveries = deliveries
	}
	for {
		select {
		case <-ctx.Done():
			return domain.BroadcastJob{}, ctx.Err()
		case d, ok := <-q.deliveries:
			if !ok {
				return domain.BroadcastJob{}, errors.New("amqp queue: channel closed")
			}
			var job domain.BroadcastJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				_ = d.Nack(false, false)
				continue
			}
			if err := d.Ack(false); err != nil {
				return domain.BroadcastJob{}, fmt.Errorf("ack: %w", err)
			}
			return job, nil
		}
	}
}

// Close освобождает канал и соединение.
func (q *AMQPBroadcastQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
