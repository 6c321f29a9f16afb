//go:build integration
// +build integration

package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/judyrop/restaurant-backend/logger"
)

// setupBroker starts a RabbitMQ container and returns its AMQP url
func setupBroker(t *testing.T) string {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.12.11-management-alpine",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		t.Fatalf("Failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	return url
}

// consume binds a private queue to every order event
func consume(t *testing.T, url string) <-chan amqp.Delivery {
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "order.#", Exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func receive(t *testing.T, deliveries <-chan amqp.Delivery) OrderEvent {
	t.Helper()
	select {
	case d := <-deliveries:
		var ev OrderEvent
		require.NoError(t, json.Unmarshal(d.Body, &ev))
		assert.Equal(t, "application/json", d.ContentType)
		assert.Equal(t, ev.Type, d.RoutingKey)
		return ev
	case <-time.After(10 * time.Second):
		t.Fatal("no message delivered")
		return OrderEvent{}
	}
}

func placed(orderID uint) OrderEvent {
	return OrderEvent{
		Type: TypeOrderPlaced, OrderID: orderID, UserID: 1,
		Total: decimal.RequireFromString("10.00"), OrderType: "mesa", OccurredAt: time.Now().UTC(),
	}
}

func TestRabbitMQPublishDeliversEvent(t *testing.T) {
	url := setupBroker(t)
	mq, err := DialRabbitMQ(url, logger.Discard())
	require.NoError(t, err)
	defer mq.Close()
	deliveries := consume(t, url)

	require.NoError(t, mq.Ping())
	require.NoError(t, mq.Publish(context.Background(), placed(7)))
	ev := receive(t, deliveries)
	assert.Equal(t, uint(7), ev.OrderID)

	require.NoError(t, mq.Publish(context.Background(), OrderEvent{Type: StatusType("pagado"), OrderID: 7, Status: "pagado"}))
	ev = receive(t, deliveries)
	assert.Equal(t, "order.status.pagado", ev.Type)
}

func TestRabbitMQAbandonedConfirmDoesNotLeak(t *testing.T) {
	url := setupBroker(t)
	mq, err := DialRabbitMQ(url, logger.Discard())
	require.NoError(t, err)
	defer mq.Close()
	deliveries := consume(t, url)

	// callers that give up early leave their confirms unread
	for i := uint(1); i <= 3; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = mq.Publish(ctx, placed(i))
	}
	for i := 0; i < 3; i++ {
		receive(t, deliveries)
	}

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = mq.Publish(context.Background(), placed(uint(100+i)))
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	seen := map[uint]bool{}
	for range errs {
		seen[receive(t, deliveries).OrderID] = true
	}
	assert.Len(t, seen, len(errs))
	assert.NoError(t, mq.Ping())
}

func TestRabbitMQReopensClosedChannel(t *testing.T) {
	url := setupBroker(t)
	mq, err := DialRabbitMQ(url, logger.Discard())
	require.NoError(t, err)
	defer mq.Close()
	mq.backoff = 100 * time.Millisecond
	deliveries := consume(t, url)

	// the broker closes a channel that references a missing exchange
	mq.mu.RLock()
	ch := mq.ch
	mq.mu.RUnlock()
	require.Error(t, ch.ExchangeDeclarePassive("no-such-exchange", "topic", true, false, false, false, nil))

	require.Eventually(t, func() bool {
		return mq.Publish(context.Background(), placed(42)) == nil
	}, 10*time.Second, 100*time.Millisecond)
	assert.NoError(t, mq.Ping())

	var got uint
	for got != 42 {
		got = receive(t, deliveries).OrderID
	}
}

func TestRabbitMQCloseStopsReconnecting(t *testing.T) {
	url := setupBroker(t)
	mq, err := DialRabbitMQ(url, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, mq.Close())
	require.NoError(t, mq.Close())
	assert.Error(t, mq.Ping())
	assert.Error(t, mq.Publish(context.Background(), placed(1)))
}
