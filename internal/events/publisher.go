package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Task lifecycle event kinds.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskEvent is broadcast to the other workspace services after a write
// lands in Jira. Consumers must treat it as a hint, not a source of truth:
// publication is best effort and the gateway never rolls back on a failed
// publish.
type TaskEvent struct {
	EventID    string    `json:"eventId"`
	Kind       string    `json:"kind"`
	JiraKey    string    `json:"jiraKey"`
	ProjectKey string    `json:"projectKey,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher fans task events out to a RabbitMQ exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	url      string
	exchange string
}

// DefaultExchange is the fanout exchange the workspace services listen on.
const DefaultExchange = "workspace.tasks"

// NewPublisher connects to RabbitMQ and declares the fanout exchange.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{url: amqpURL, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := channel.ExchangeDeclare(p.exchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return err
	}
	p.conn = conn
	p.channel = channel
	return nil
}

// Publish sends one event, reconnecting once if the channel went away.
func (p *Publisher) Publish(event TaskEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publishLocked(body); err != nil {
		if reconnectErr := p.connect(); reconnectErr != nil {
			return err
		}
		return p.publishLocked(body)
	}
	return nil
}

func (p *Publisher) publishLocked(body []byte) error {
	return p.channel.Publish(p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
