package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nmoreno/go-commerce-api/internal/postgres"
)

type Repo struct{ DB *postgres.DB }

const orderCols = `id, owner_id, status, total_amount, purchase_date, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OwnerID, &o.Status, &o.TotalAmount,
		&o.PurchaseDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the order and its line items. It issues all statements
// through the context querier, so when the caller runs it inside
// postgres.RunAtomic the order materializes atomically with the rest of
// the purchase.
func (r *Repo) Create(ctx context.Context, o *Order) (*Order, error) {
	q := r.DB.Querier(ctx)

	id := uuid.NewString()
	status := o.Status
	if status == "" {
		status = StatusPending
	}
	purchaseDate := o.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now().UTC()
	}

	created, err := scanOrder(q.QueryRow(ctx, `
		INSERT INTO orders (id, owner_id, status, total_amount, purchase_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderCols,
		id, o.OwnerID, status, o.TotalAmount, purchaseDate))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := q.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)`,
			id, it.ProductID, it.Quantity, it.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}
	created.Items = o.Items
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Order, error) {
	q := r.DB.Querier(ctx)
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.itemsOf(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) itemsOf(ctx context.Context, orderID string) ([]LineItem, error) {
	q := r.DB.Querier(ctx)
	rows, err := q.Query(ctx, `
		SELECT product_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type Filter struct {
	Status  Status
	OwnerID string
}

func (r *Repo) List(ctx context.Context, f Filter, page, limit int) ([]Order, int64, error) {
	q := r.DB.Querier(ctx)

	where := `WHERE true`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		where += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY purchase_date DESC LIMIT $%d OFFSET $%d`,
		orderCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.Status, &o.TotalAmount,
			&o.PurchaseDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]Order, int64, error) {
	return r.List(ctx, Filter{OwnerID: ownerID}, page, limit)
}

// UpdateStatus applies a guarded transition. The UPDATE re-checks the
// current status so two concurrent admin writes cannot both win.
func (r *Repo) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}

	q := r.DB.Querier(ctx)
	o, err := scanOrder(q.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderCols, id, to, cur.Status))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, id)
		}
		return nil, err
	}
	o.Items = cur.Items
	return o, nil
}
