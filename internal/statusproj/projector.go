// Package statusproj maintains the Redis order-status cache from order
// events, keeping the read path off Postgres without in-line cache writes
// on every status change.
package statusproj

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/nmoreno/go-commerce-api/internal/kafka"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/redisx"
)

type Projector struct {
	Redis       *redis.Client
	Cache       *redisx.StatusCache
	ServiceName string
}

// Handle is wired as the consumer handler for both order topics. Events
// are deduplicated by event id, so redelivery after a failed commit is
// harmless.
func (p *Projector) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, p.ServiceName, env.EventID)
	seen, err := redisx.Exists(ctx, p.Redis, dkey)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	var orderID string
	var status orders.Status
	switch env.EventType {
	case orders.EventOrderPlaced:
		payload, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		orderID, status = payload.OrderID, payload.Status
	case orders.EventStatusChanged:
		payload, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		orderID, status = payload.OrderID, payload.To
	default:
		return nil // not ours
	}

	if err := p.Cache.SetStatus(ctx, orderID, string(status)); err != nil {
		return fmt.Errorf("cache status: %w", err)
	}
	if err := p.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err(); err != nil {
		log.Printf("statusproj: mark dedup %s: %v", env.EventID, err)
	}
	return nil
}
