package carts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nmoreno/go-commerce-api/internal/postgres"
)

type Repo struct{ DB *postgres.DB }

func scanCart(row pgx.Row) (*Cart, error) {
	var c Cart
	var raw []byte
	err := row.Scan(&c.ID, &c.OwnerID, &raw, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return &c, nil
}

func (r *Repo) FindByOwner(ctx context.Context, ownerID string) (*Cart, error) {
	q := r.DB.Querier(ctx)
	return scanCart(q.QueryRow(ctx, `
		SELECT id, owner_id, items, version, created_at, updated_at
		FROM carts WHERE owner_id = $1`, ownerID))
}

// Create inserts an empty cart for the owner. The unique index on owner_id
// enforces one cart per owner; a duplicate insert returns the existing row.
func (r *Repo) Create(ctx context.Context, ownerID string) (*Cart, error) {
	q := r.DB.Querier(ctx)
	if _, err := q.Exec(ctx, `
		INSERT INTO carts (id, owner_id, items, version)
		VALUES ($1, $2, '[]'::jsonb, 1)
		ON CONFLICT (owner_id) DO NOTHING`,
		uuid.NewString(), ownerID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return r.FindByOwner(ctx, ownerID)
}

// ReplaceLineItems swaps the whole line-item sequence, guarded by the
// version the caller read. A stale version yields ErrVersionConflict so a
// racing mutation is never silently dropped.
func (r *Repo) ReplaceLineItems(ctx context.Context, cartID string, items []LineItem, version int64) (*Cart, error) {
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart items: %w", err)
	}

	q := r.DB.Querier(ctx)
	c, err := scanCart(q.QueryRow(ctx, `
		UPDATE carts
		SET items = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING id, owner_id, items, version, created_at, updated_at`,
		cartID, raw, version))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// distinguish a missing cart from a lost race
			var exists bool
			if probeErr := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM carts WHERE id=$1)`, cartID).Scan(&exists); probeErr != nil {
				return nil, probeErr
			}
			if exists {
				return nil, ErrVersionConflict
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
