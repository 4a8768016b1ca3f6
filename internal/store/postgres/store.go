package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// PostgresStore is the store.Store backed by the Supabase Postgres database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping checks that the pool can reach the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// --- User Methods ---

const userColumns = `id, name, email, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID retrieves a user by id.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByID: Failed to query user %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching user by id: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	log.Printf("[PostgresStore] GetUserByEmail called for: %s", email)
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY created_at ASC LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[PostgresStore] GetUserByEmail: User not found for email %s", email)
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByEmail: Failed to query/scan user for email %s: %v", email, err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

// GetUserByName retrieves the oldest user with the given display name.
func (s *PostgresStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1 ORDER BY created_at ASC LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByName: Failed to query/scan user %q: %v", name, err)
		return nil, fmt.Errorf("database error fetching user by name: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, arg store.CreateUserParams) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3) RETURNING `+userColumns,
		uuid.New(), arg.Name, arg.Email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] CreateUser: PostgreSQL error executing insert: Code=%s, Message=%s, Detail=%s", pgErr.Code, pgErr.Message, pgErr.Detail)
		} else {
			log.Printf("ERROR [PostgresStore] CreateUser: Failed to execute insert: %v", err)
		}
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	log.Printf("[PostgresStore] CreateUser: Successfully inserted user ID %s", user.ID)
	return user, nil
}

// isForeignKeyViolation reports whether err carries SQLSTATE 23503, which every
// insert here treats as a reference to a row that does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
