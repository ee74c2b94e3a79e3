package issues

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore persists issues in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// NewPostgresStore connects to Postgres, applies pending migrations and
// returns a ready store.
func NewPostgresStore(ctx context.Context, databaseURL string, log logger.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{pool: pool, log: log}
	if err := store.migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating issues schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate() error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer func(db *sql.DB) {
		_ = db.Close()
	}(db)

	sourceDriver, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating embedded migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.log.Info("No new issue migrations to apply")
			return nil
		}
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.Info("Applied issue migrations")
	return nil
}

// Create persists a new pending issue.
func (s *PostgresStore) Create(ctx context.Context, issue *Issue) error {
	if issue == nil {
		return fmt.Errorf("issue cannot be nil")
	}
	if issue.Reference == "" {
		issue.Reference = NewReference()
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO issues (reference, username, email, message, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, status, created_at, updated_at`,
		issue.Reference, issue.Username, issue.Email, issue.Message, StatusPending)

	if err := row.Scan(&issue.ID, &issue.Status, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		s.log.Error("Failed to create issue", logger.ErrorField(err))
		return fmt.Errorf("creating issue: %w", err)
	}

	s.log.Info("Created issue", logger.StringField("reference", issue.Reference))
	return nil
}

// List returns all issues, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Issue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reference, username, email, message, status, created_at, updated_at
		 FROM issues
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var issue Issue
		if err := rows.Scan(&issue.ID, &issue.Reference, &issue.Username, &issue.Email,
			&issue.Message, &issue.Status, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		out = append(out, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return out, nil
}

// UpdateStatus moves an issue to a new status.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status string) (*Issue, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE issues
		 SET status = $1, updated_at = $2
		 WHERE id = $3
		 RETURNING id, reference, username, email, message, status, created_at, updated_at`,
		status, time.Now().UTC(), id)

	var issue Issue
	err := row.Scan(&issue.ID, &issue.Reference, &issue.Username, &issue.Email,
		&issue.Message, &issue.Status, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("updating issue %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("updating issue %d: %w", id, err)
	}
	return &issue, nil
}

// Delete removes an issue.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting issue %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting issue %d: %w", id, ErrNotFound)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
