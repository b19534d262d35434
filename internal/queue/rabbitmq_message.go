package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a decoded delivery job bound to the consumer channel it
// arrived on. Acks must go back on that same channel.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

var _ MessageInterface = (*Message)(nil)

func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}
