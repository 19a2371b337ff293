package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

const uniqueViolation = "23505"

const selectUser = `SELECT id, name, age, email, hashed_password, phone, street, city, state, zip, country,
	is_subscribed, is_admin, created_at, updated_at FROM users`

// Directory is the persisted set of user accounts.
type Directory interface {
	// FindByEmail returns shared.ErrNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Insert stores u and returns it with ID and CreatedAt assigned.
	// It fails with shared.ErrDuplicateEmail when the email is taken.
	Insert(ctx context.Context, u User) (*User, error)
	// ListSubscribed returns every account with IsSubscribed set, ordered by id.
	ListSubscribed(ctx context.Context) ([]User, error)
}

type querier interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Directory using PostgreSQL.
type PGRepository struct {
	db      querier
	timeout time.Duration
}

// NewRepository constructs a PostgreSQL repository. Every query is bounded by timeout.
func NewRepository(pool *pgxpool.Pool, timeout time.Duration) *PGRepository {
	return &PGRepository{db: pool, timeout: timeout}
}

func (r *PGRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// FindByEmail fetches a user by exact email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRow(ctx, selectUser+` WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, storageError("find by email", err)
	}
	return user, nil
}

// Insert creates the account relying on the unique index on email.
func (r *PGRepository) Insert(ctx context.Context, u User) (*User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `INSERT INTO users (name, age, email, hashed_password, phone, street, city, state, zip, country, is_subscribed, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		u.Name, u.Age, u.Email, u.PasswordHash,
		u.Phone, u.Street, u.City, u.State, u.Zip, u.Country,
		u.IsSubscribed, u.IsAdmin,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, mapInsertError(err)
	}
	return &u, nil
}

// ListSubscribed returns newsletter subscribers.
func (r *PGRepository) ListSubscribed(ctx context.Context) ([]User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, selectUser+` WHERE is_subscribed = TRUE ORDER BY id`)
	if err != nil {
		return nil, storageError("list subscribed", err)
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storageError("scan subscriber", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list subscribed", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Age, &u.Email, &u.PasswordHash,
		&u.Phone, &u.Street, &u.City, &u.State, &u.Zip, &u.Country,
		&u.IsSubscribed, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shared.ErrDuplicateEmail
	}
	return storageError("insert user", err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("users: %s: %w: %w", op, shared.ErrUnavailable, err)
}

var _ Directory = (*PGRepository)(nil)

// SetAdmin flips the admin flag for email. Used by the seed tooling; no
// HTTP endpoint mutates accounts after registration.
func (r *PGRepository) SetAdmin(ctx context.Context, email string, admin bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx,
		`UPDATE users SET is_admin = $2, updated_at = NOW() WHERE email = $1 RETURNING id`,
		email, admin,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return storageError("set admin", err)
	}
	return nil
}
