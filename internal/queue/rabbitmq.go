package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Topology names the broker objects used for reminder delivery. Retries
// park in RetryQueue until their per-message TTL expires and are then
// dead-lettered back onto Queue; expired and exhausted deliveries end up
// in DeadLetterQueue.
type Topology struct {
	Exchange        string
	Queue           string
	RetryQueue      string
	DeadLetterQueue string
}

// DefaultTopology returns the names used in production
func DefaultTopology() Topology {
	return Topology{
		Exchange:        "reminders",
		Queue:           "reminder_deliveries",
		RetryQueue:      "reminder_deliveries_retry",
		DeadLetterQueue: "reminder_deliveries_dlq",
	}
}

const (
	deliverKey = "deliver"
	retryKey   = "retry"
	deadKey    = "dead"
)

type queueDecl struct {
	name string
	key  string
	args amqp.Table
}

// declarations lists the queues to declare and bind, dead-letter target first
func (t Topology) declarations() []queueDecl {
	return []queueDecl{
		{name: t.DeadLetterQueue, key: deadKey},
		{name: t.Queue, key: deliverKey, args: amqp.Table{
			"x-dead-letter-exchange":    t.Exchange,
			"x-dead-letter-routing-key": deadKey,
		}},
		{name: t.RetryQueue, key: retryKey, args: amqp.Table{
			"x-dead-letter-exchange":    t.Exchange,
			"x-dead-letter-routing-key": deliverKey,
		}},
	}
}

// RabbitMQQueue carries delivery jobs over RabbitMQ
type RabbitMQQueue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	publishMu sync.Mutex
	topology  Topology
	logger    *zap.Logger
}

var (
	_ JobQueue  = (*RabbitMQQueue)(nil)
	_ DLQPurger = (*RabbitMQQueue)(nil)
)

// NewRabbitMQQueue dials amqpURL and declares the default topology
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:     conn,
		channel:  ch,
		topology: DefaultTopology(),
		logger:   logger,
	}
	if err := q.declare(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}
	return q, nil
}

func (q *RabbitMQQueue) declare() error {
	if err := q.channel.ExchangeDeclare(q.topology.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", q.topology.Exchange, err)
	}
	for _, d := range q.topology.declarations() {
		if _, err := q.channel.QueueDeclare(d.name, true, false, false, false, d.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", d.name, err)
		}
		if err := q.channel.QueueBind(d.name, d.key, q.topology.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", d.name, err)
		}
	}
	q.logger.Debug("rabbitmq_topology_declared", zap.String("exchange", q.topology.Exchange))
	return nil
}

// publishing builds the message for job at now and picks its routing key.
// Jobs held back by NotBefore go to the retry queue with the remaining
// delay as TTL; the rest expire at NotAfter.
func publishing(job *Job, now time.Time) (amqp.Publishing, string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, "", fmt.Errorf("failed to marshal job: %w", err)
	}
	p := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.CreatedAt,
		Type:         string(job.Type),
	}

	if job.NotBefore != nil {
		if delay := job.NotBefore.Sub(now); delay > 0 {
			p.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
			return p, retryKey, nil
		}
	}
	if job.NotAfter != nil {
		if ttl := job.NotAfter.Sub(now); ttl > 0 {
			p.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}
	return p, deliverKey, nil
}

// Enqueue publishes a delivery job
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	p, key, err := publishing(job, time.Now())
	if err != nil {
		return err
	}

	q.publishMu.Lock()
	defer q.publishMu.Unlock()
	if err := q.channel.PublishWithContext(ctx, q.topology.Exchange, key, false, false, p); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

type verdict int

const (
	verdictDeliver verdict = iota
	verdictDeadLetter
	verdictRequeue
)

// classify decodes a delivery body and decides what to do with it at now
func classify(body []byte, now time.Time) (*Job, verdict, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, verdictDeadLetter, fmt.Errorf("failed to decode job: %w", err)
	}
	if job.ExpiredAt(now) {
		return &job, verdictDeadLetter, nil
	}
	if job.HeldAt(now) {
		return &job, verdictRequeue, nil
	}
	return &job, verdictDeliver, nil
}

// Consume streams delivery jobs on a dedicated channel with the given
// prefetch. Undecodable and expired jobs are dead-lettered without being
// handed out.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan MessageInterface, <-chan error, error) {
	prefetchCount = max(prefetchCount, 1)

	ch, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := ch.Consume(q.topology.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgs := make(chan MessageInterface, prefetchCount)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)
		defer func() { _ = ch.Close() }()

		for {
			var d amqp.Delivery
			var ok bool
			select {
			case <-ctx.Done():
				return
			case d, ok = <-deliveries:
				if !ok {
					errs <- errors.New("delivery channel closed")
					return
				}
			}

			job, v, err := classify(d.Body, time.Now())
			switch v {
			case verdictDeadLetter:
				if err != nil {
					q.logger.Error("queue_message_undecodable", zap.String("message_id", d.MessageId), zap.Error(err))
				} else {
					q.logger.Warn("delivery_expired", zap.String("job_id", job.ID.String()))
				}
				_ = d.Nack(false, false)
				continue
			case verdictRequeue:
				_ = d.Nack(false, true)
				continue
			}

			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			case msgs <- &Message{Job: job, DeliveryTag: d.DeliveryTag, Channel: ch}:
			}
		}
	}()

	return msgs, errs, nil
}

// HealthCheck verifies the connection and publishing channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return errors.New("rabbitmq connection is closed")
	case q.channel == nil || q.channel.IsClosed():
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

// PurgeOlderThan drops dead-lettered deliveries published before
// now-retention. The DLQ is FIFO so the scan stops at the first younger one.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open purge channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	cutoff := time.Now().Add(-retention)
	purged := 0
	for ctx.Err() == nil {
		msg, ok, err := ch.Get(q.topology.DeadLetterQueue, false)
		if err != nil {
			return purged, fmt.Errorf("failed to get DLQ message: %w", err)
		}
		if !ok {
			return purged, nil
		}
		if !msg.Timestamp.IsZero() && msg.Timestamp.After(cutoff) {
			_ = msg.Nack(false, true)
			return purged, nil
		}
		if err := msg.Ack(false); err != nil {
			return purged, fmt.Errorf("failed to ack DLQ message: %w", err)
		}
		purged++
	}
	return purged, ctx.Err()
}

// Close closes the publishing channel and the connection
func (q *RabbitMQQueue) Close() error {
	var errs []error
	if q.channel != nil {
		errs = append(errs, q.channel.Close())
	}
	if q.conn != nil {
		errs = append(errs, q.conn.Close())
	}
	return errors.Join(errs...)
}
