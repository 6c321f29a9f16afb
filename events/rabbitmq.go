package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	Exchange         = "orders_topic"
	publishTimeout   = 5 * time.Second
	reconnectBackoff = 2 * time.Second
)

// RabbitMQ publishes events to a topic exchange and waits for the broker's
// confirm of each message before returning. A lost connection or channel is
// reopened in the background.
type RabbitMQ struct {
	url     string
	log     *logrus.Entry
	backoff time.Duration

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

func DialRabbitMQ(url string, log *logrus.Entry) (*RabbitMQ, error) {
	r := &RabbitMQ{url: url, log: log, backoff: reconnectBackoff, done: make(chan struct{})}
	if err := r.connect(); err != nil {
		return nil, err
	}
	go r.handleReconnect()
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	r.mu.Lock()
	old := r.conn
	r.conn, r.ch = conn, ch
	r.mu.Unlock()
	if old != nil && !old.IsClosed() {
		_ = old.Close()
	}
	return nil
}

// handleReconnect waits for the connection or channel to close and dials
// again until it succeeds or Close is called.
func (r *RabbitMQ) handleReconnect() {
	for {
		r.mu.RLock()
		connClosed := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := r.ch.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		var cause *amqp.Error
		select {
		case <-r.done:
			return
		case cause = <-connClosed:
		case cause = <-chClosed:
		}
		// nil means a graceful close, which only Close does
		if cause == nil {
			return
		}
		r.log.WithField("action", "rabbitmq_reconnect").WithError(cause).Warn("rabbitmq connection lost, reconnecting")

		for {
			select {
			case <-r.done:
				return
			case <-time.After(r.backoff):
			}
			if err := r.connect(); err != nil {
				r.log.WithField("action", "rabbitmq_reconnect").WithError(err).Warn("reconnect failed")
				continue
			}
			r.log.WithField("action", "rabbitmq_reconnect").Info("rabbitmq reconnected")
			break
		}
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.RLock()
	ch := r.ch
	r.mu.RUnlock()

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, Exchange, ev.Type, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: fmt.Sprintf("order-%d", ev.OrderID),
		Timestamp:     ev.OccurredAt,
		Headers:       amqp.Table{"x-source": "restaurant-backend"},
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}

	// the confirmation is matched to this delivery tag
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("no confirm for %s: %w", ev.Type, err)
	}
	if !acked {
		return fmt.Errorf("publish %s NACK from broker", ev.Type)
	}
	return nil
}

// Ping reports whether the connection and channel are open.
func (r *RabbitMQ) Ping() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conn == nil || r.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	if r.ch == nil || r.ch.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.closeOnce.Do(func() { close(r.done) })

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn.Close()
	}
	return nil
}
