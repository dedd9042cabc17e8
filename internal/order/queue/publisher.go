// Package queue wraps the AMQP broker used for Order's deferred
// warranty-enrolment fallback: a publisher used by the purchase saga, and
// a singleton background worker that drains retries (spec §4.4).
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher publishes item_uid strings onto the deferred enrolment queue.
// The connection is not guarded by a lock of its own: each Publish opens a
// short-lived channel on it, and the deferred worker opens its own channels
// on the same connection.
type Publisher struct {
	conn      *amqp.Connection
	queueName string
	logger    zerolog.Logger
}

// Dial connects to the AMQP broker at url and returns a Publisher bound to
// queueName. Returns an error if the broker is unreachable.
func Dial(url, queueName string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	return &Publisher{conn: conn, queueName: queueName, logger: logger.With().Str("component", "queue_publisher").Logger()}, nil
}

// Connection exposes the underlying AMQP connection so the deferred worker
// can share it.
func (p *Publisher) Connection() *amqp.Connection {
	return p.conn
}

// QueueName returns the configured deferred-enrolment queue name.
func (p *Publisher) QueueName() string {
	return p.queueName
}

// Close closes the underlying AMQP connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// Publish enqueues itemUID for deferred warranty enrolment.
func (p *Publisher) Publish(itemUID string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.Publish("", q.Name, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte(itemUID),
	}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	p.logger.Info().Str("item_uid", itemUID).Msg("deferred enrolment published")
	return nil
}
