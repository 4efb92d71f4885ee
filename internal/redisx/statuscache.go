package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StatusCache holds the projected order status as a small JSON document
// under order_status:{id}. Writers are the post-purchase notifier, the
// status projector and the read fallback; all three produce the same
// document.
type StatusCache struct {
	Client *redis.Client
}

// GetStatus returns the raw cached document, or "" on a miss.
func (c *StatusCache) GetStatus(ctx context.Context, orderID string) (string, error) {
	raw, err := c.Client.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return raw, nil
}

func (c *StatusCache) SetStatus(ctx context.Context, orderID, status string) error {
	doc := fmt.Sprintf(`{"status":%q}`, status)
	return c.Client.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), doc, TTLStatusCache).Err()
}
