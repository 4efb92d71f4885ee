package checkout

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/nmoreno/go-commerce-api/internal/kafka"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/redisx"
)

// EventNotifier publishes order events and primes the Redis status cache.
// Both are best effort; the order row is already committed by the time a
// notification goes out.
type EventNotifier struct {
	Producer       *kafkax.Producer // order.placed
	StatusProducer *kafkax.Producer // order.status.changed
	Cache          *redisx.StatusCache
	Service        string
}

func (n *EventNotifier) OrderPlaced(ctx context.Context, o *orders.Order) {
	if n.Producer != nil {
		ev := orders.NewOrderPlaced(o, n.Service)
		n.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	n.cacheStatus(ctx, o.ID, o.Status)
}

func (n *EventNotifier) StatusChanged(ctx context.Context, orderID string, from, to orders.Status) {
	if n.StatusProducer != nil {
		ev := orders.NewStatusChanged(orderID, from, to, n.Service)
		n.StatusProducer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStatusChanged)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	n.cacheStatus(ctx, orderID, to)
}

func (n *EventNotifier) cacheStatus(ctx context.Context, orderID string, st orders.Status) {
	if n.Cache == nil {
		return
	}
	_ = n.Cache.SetStatus(ctx, orderID, string(st))
}
