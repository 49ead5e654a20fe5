// Package bus wraps the AMQP message bus every stage cluster exchanges
// tagged records over: queue/exchange declaration, bounded-prefetch
// manual-ack consumption, and publish helpers for both direct queues and
// fanout exchanges (communication/communication.py's queue/exchange
// bindings, reimplemented against a real broker client). Reconnect uses
// the same exponential-backoff shape the rest of the pipeline's clients
// use (messaging.go's BitcoinRPCConfig retry loop).
package bus

import (
	"context"
	"fmt"
	neturl "net/url"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/obslog"
)

// prefetchCount bounds how many unacked deliveries a consumer holds at
// once: 1, so a shard never buffers work it hasn't committed to, and a
// crash mid-processing redelivers exactly the one in-flight message.
const prefetchCount = 1

type busMetrics struct {
	published  prometheus.Counter
	consumed   prometheus.Counter
	acked      prometheus.Counter
	nacked     prometheus.Counter
	reconnects prometheus.Counter
}

func newMetrics() *busMetrics {
	return &busMetrics{
		published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_bus_messages_published_total",
			Help: "Total number of messages published to the bus.",
		}),
		consumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_bus_messages_consumed_total",
			Help: "Total number of messages delivered from the bus.",
		}),
		acked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_bus_messages_acked_total",
			Help: "Total number of deliveries acknowledged.",
		}),
		nacked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_bus_messages_nacked_total",
			Help: "Total number of deliveries rejected and requeued.",
		}),
		reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_bus_reconnects_total",
			Help: "Total number of broker reconnect attempts.",
		}),
	}
}

// Bus is a connected AMQP channel plus the reconnect policy to rebuild
// it with.
type Bus struct {
	url     string
	conn    *amqp.Connection
	ch      *amqp.Channel
	logger  *zap.Logger
	metrics *busMetrics
}

// Dial connects to the broker at url, retrying with exponential backoff
// until ctx is done. A fresh channel is opened with prefetch bounded to
// prefetchCount.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Bus, error) {
	metrics := newMetrics()
	b := &Bus{url: url, logger: logger, metrics: metrics}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.Retry(func() error {
		conn, err := amqp.Dial(url)
		if err != nil {
			metrics.reconnects.Inc()
			return err
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			metrics.reconnects.Inc()
			return err
		}
		if err := ch.Qos(prefetchCount, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return backoff.Permanent(err)
		}
		b.conn, b.ch = conn, ch
		return nil
	}, policy)
	if err != nil {
		obslog.Action(logger, "bus_dial", err, zap.String("url", redactURL(url)))
		return nil, fmt.Errorf("bus: dial %s: %w", redactURL(url), err)
	}
	obslog.Action(logger, "bus_dial", nil, zap.String("url", redactURL(url)))
	return b, nil
}

func redactURL(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	u.User = nil
	return u.String()
}

// Close tears down the channel and connection.
func (b *Bus) Close() error {
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// DeclareQueue declares a durable queue by name, matching the reference
// implementation's queue_declare(durable=True) calls.
func (b *Bus) DeclareQueue(name string) (amqp.Queue, error) {
	q, err := b.ch.QueueDeclare(name, true, false, false, false, nil)
	obslog.Action(b.logger, "bus_declare_queue", err, zap.String("queue", name))
	return q, err
}

// DeclareFanoutExchange declares a fanout exchange, the routing a
// router stage uses to broadcast an EOF token to every shard of a
// downstream cluster at once.
func (b *Bus) DeclareFanoutExchange(name string) error {
	err := b.ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil)
	obslog.Action(b.logger, "bus_declare_exchange", err, zap.String("exchange", name))
	return err
}

// BindQueue binds queue to exchange with routingKey ("" for fanout).
func (b *Bus) BindQueue(queue, exchange, routingKey string) error {
	err := b.ch.QueueBind(queue, routingKey, exchange, false, nil)
	obslog.Action(b.logger, "bus_bind_queue", err, zap.String("queue", queue), zap.String("exchange", exchange))
	return err
}

// PublishToQueue publishes body directly to queue via the default
// exchange, the routing a stage uses to hand work to a specific
// sibling shard (e.g. a deterministically chosen downstream partition).
func (b *Bus) PublishToQueue(ctx context.Context, queue string, body []byte) error {
	err := b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		obslog.Action(b.logger, "bus_publish", err, zap.String("queue", queue))
		return err
	}
	b.metrics.published.Inc()
	return nil
}

// PublishToExchange publishes body to a fanout exchange, reaching every
// bound queue — used to broadcast an EOF token or fan a record out to
// every shard of a router's destination cluster.
func (b *Bus) PublishToExchange(ctx context.Context, exchange string, body []byte) error {
	err := b.ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		obslog.Action(b.logger, "bus_publish", err, zap.String("exchange", exchange))
		return err
	}
	b.metrics.published.Inc()
	return nil
}

// Consume returns the delivery channel for queue. Callers ack or nack
// each delivery explicitly (prefetch is 1, auto-ack is off).
func (b *Bus) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	deliveries, err := b.ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		obslog.Action(b.logger, "bus_consume", err, zap.String("queue", queue))
		return nil, err
	}
	return deliveries, nil
}

// Ack acknowledges one delivery.
func (b *Bus) Ack(d amqp.Delivery) error {
	b.metrics.consumed.Inc()
	if err := d.Ack(false); err != nil {
		return err
	}
	b.metrics.acked.Inc()
	return nil
}

// Reenqueue nacks one delivery with requeue=true, putting it back at the
// tail of its queue — the joiner's "not all dependencies seen yet"
// deferral mechanism.
func (b *Bus) Reenqueue(d amqp.Delivery) error {
	b.metrics.consumed.Inc()
	if err := d.Nack(false, true); err != nil {
		return err
	}
	b.metrics.nacked.Inc()
	return nil
}

// Drop nacks one delivery with requeue=false, discarding a message the
// stage has determined is permanently unprocessable (e.g. an invalid
// CSV line already logged and skipped upstream).
func (b *Bus) Drop(d amqp.Delivery) error {
	b.metrics.consumed.Inc()
	return d.Nack(false, false)
}
