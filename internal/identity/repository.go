package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safarcab/safar/internal/principal"
)

var (
	// ErrNotFound indicates no user exists for the requested key.
	ErrNotFound = errors.New("user not found")

	// ErrMobileTaken indicates the store's uniqueness constraint rejected an
	// insert because a record for the mobile number already exists. Callers
	// resolve it by re-fetching the existing record.
	ErrMobileTaken = errors.New("mobile number already registered")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByMobile(ctx context.Context, mobile string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) (User, error)
	List(ctx context.Context) ([]User, error)
}

// RepoSet pairs the repositories backed by the two store roles so handlers
// can select one from the request's access profile.
type RepoSet struct {
	Restricted Repository
	Privileged Repository
}

// For returns the repository matching the access profile.
func (s RepoSet) For(ap principal.AccessProfile) Repository {
	if ap == principal.Privileged {
		return s.Privileged
	}
	return s.Restricted
}

const uniqueViolationCode = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A unique violation on the mobile column maps to
// ErrMobileTaken.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, mobile, name, email, created_at)
        VALUES ($1, $2, $3, $4, $5)`, userID, user.Mobile, user.Name, user.Email, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrMobileTaken
	}
	return err
}

// FindByMobile fetches a user by normalized mobile number.
func (r *PostgresRepository) FindByMobile(ctx context.Context, mobile string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, mobile, name, email, created_at FROM users WHERE mobile = $1`, mobile)
	return scanUser(row)
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, mobile, name, email, created_at FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// UpdateProfile stores the mutable profile fields and returns the updated
// record.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, profile Profile) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE users SET name = $1, email = $2 WHERE id = $3
        RETURNING id, mobile, name, email, created_at`, profile.Name, profile.Email, userID)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, mobile, name, email, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
			user      User
		)
		if err := rows.Scan(&id, &user.Mobile, &user.Name, &user.Email, &createdAt); err != nil {
			return nil, err
		}
		user.ID = id.String()
		user.CreatedAt = createdAt.UTC()
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Mobile, &user.Name, &user.Email, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
