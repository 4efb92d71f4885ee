package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/postgres"
)

type Repo struct{ DB *postgres.DB }

const productCols = `id, name, description, price, stock, category, thumbnail, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Thumbnail, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) (*Product, error) {
	q := r.DB.Querier(ctx)
	row := q.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, category, thumbnail, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING `+productCols,
		uuid.NewString(), p.Name, p.Description, p.Price, p.Stock, p.Category, p.Thumbnail)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Product, error) {
	q := r.DB.Querier(ctx)
	return scanProduct(q.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

// Filter narrows List results. Sort accepts "price_asc" or "price_desc";
// anything else falls back to newest first.
type Filter struct {
	Category string
	Name     string
	Sort     string
}

// List returns active products only; soft-deleted records stay reachable
// through FindByID for order history.
func (r *Repo) List(ctx context.Context, f Filter, page, limit int) ([]Product, int64, error) {
	q := r.DB.Querier(ctx)

	where := `WHERE active`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order := `ORDER BY created_at DESC`
	switch f.Sort {
	case "price_asc":
		order = `ORDER BY price ASC`
	case "price_desc":
		order = `ORDER BY price DESC`
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM products %s %s LIMIT $%d OFFSET $%d`,
		productCols, where, order, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.Category, &p.Thumbnail, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, upd Update) (*Product, error) {
	q := r.DB.Querier(ctx)
	row := q.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			stock       = COALESCE($5, stock),
			category    = COALESCE($6, category),
			thumbnail   = COALESCE($7, thumbnail),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+productCols,
		id, upd.Name, upd.Description, upd.Price, upd.Stock, upd.Category, upd.Thumbnail)
	return scanProduct(row)
}

// SetLifecycle moves the product between active and inactive. Deactivation
// is the soft delete: the row stays put so existing orders keep a valid
// reference.
func (r *Repo) SetLifecycle(ctx context.Context, id string, to lifecycle.State) (*Product, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Transition(lifecycle.FromActive(p.Active), to)
	if err != nil {
		return nil, err
	}
	q := r.DB.Querier(ctx)
	row := q.QueryRow(ctx, `
		UPDATE products SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productCols, id, next == lifecycle.Active)
	return scanProduct(row)
}

// DecrementStock is a compare-and-swap: the guard runs at the storage layer
// so concurrent purchases of the same product can never drive stock
// negative. A failed guard is re-read to report accurate numbers.
func (r *Repo) DecrementStock(ctx context.Context, id string, qty int) (*Product, error) {
	q := r.DB.Querier(ctx)
	ct, err := q.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND active AND stock >= $2`, id, qty)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return r.FindByID(ctx, id)
	}

	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, &InactiveProductError{ProductID: id}
	}
	return nil, &InsufficientStockError{ProductID: id, Requested: qty, Available: p.Stock}
}
