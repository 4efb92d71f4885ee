package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nmoreno/go-commerce-api/internal/lifecycle"
	"github.com/nmoreno/go-commerce-api/internal/postgres"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repo struct{ DB *postgres.DB }

const userCols = `id, first_name, last_name, email, password_hash, role, active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repo) Create(ctx context.Context, u *User) (*User, error) {
	q := r.DB.Querier(ctx)
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	row := q.QueryRow(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING `+userCols,
		uuid.NewString(), u.FirstName, u.LastName, u.Email, u.PasswordHash, role)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	q := r.DB.Querier(ctx)
	return scanUser(q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	q := r.DB.Querier(ctx)
	return scanUser(q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email)=lower($1)`, email))
}

type Filter struct {
	Role  Role
	Email string
}

func (r *Repo) List(ctx context.Context, f Filter, page, limit int) ([]User, int64, error) {
	q := r.DB.Querier(ctx)

	where := `WHERE true`
	args := []any{}
	if f.Role != "" {
		args = append(args, f.Role)
		where += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if f.Email != "" {
		args = append(args, "%"+f.Email+"%")
		where += fmt.Sprintf(" AND email ILIKE $%d", len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
			&u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, upd Update) (*User, error) {
	q := r.DB.Querier(ctx)
	row := q.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userCols,
		id, upd.FirstName, upd.LastName, upd.Email)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) SetRole(ctx context.Context, id string, role Role) (*User, error) {
	q := r.DB.Querier(ctx)
	return scanUser(q.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userCols, id, role))
}

// SetLifecycle soft-deletes (or restores) the account.
func (r *Repo) SetLifecycle(ctx context.Context, id string, to lifecycle.State) (*User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Transition(lifecycle.FromActive(u.Active), to)
	if err != nil {
		return nil, err
	}
	q := r.DB.Querier(ctx)
	return scanUser(q.QueryRow(ctx, `
		UPDATE users SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userCols, id, next == lifecycle.Active))
}
