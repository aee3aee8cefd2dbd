package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"pos-system/internal/domain"
	"pos-system/internal/logger"
)

// Exchange carrying every row change. Routing key is "<table>.<type>",
// e.g. "orders.INSERT", so a consumer can narrow its binding if it wants.
const changesExchange = "pos.changes"

// Feed is the RabbitMQ side of the backend: writes publish here and every
// terminal holds one subscription.
type Feed struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *logger.Logger
}

func DialFeed(url string, log *logger.Logger) (*Feed, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(changesExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Feed{conn: conn, ch: ch, log: log}, nil
}

func (f *Feed) Close() {
	if f == nil {
		return
	}
	if f.ch != nil {
		_ = f.ch.Close()
	}
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

func (f *Feed) Publish(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := ev.Table + "." + string(ev.Type)
	return f.ch.PublishWithContext(ctx, changesExchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Subscribe binds a terminal-private queue to the exchange and returns the
// decoded event stream. The queue is exclusive and auto-deleted: a terminal
// that was away does not replay what it missed, it reloads instead.
func (f *Feed) Subscribe(ctx context.Context, terminal string) (<-chan domain.Event, error) {
	q, err := f.ch.QueueDeclare("pos.terminal."+terminal, false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare terminal queue: %w", err)
	}
	if err := f.ch.QueueBind(q.Name, "#", changesExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind terminal queue: %w", err)
	}
	deliveries, err := f.ch.Consume(q.Name, terminal, true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	events := make(chan domain.Event)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var ev domain.Event
				if err := json.Unmarshal(d.Body, &ev); err != nil {
					f.log.Error("feed_decode_failed", err, map[string]any{"routing_key": d.RoutingKey})
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// Ping reports whether the broker connection is still up.
func (f *Feed) Ping() error {
	if f.conn == nil || f.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}
