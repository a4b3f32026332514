package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"sweetshop/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema holds the bootstrap SQL for the products table.
//
//go:embed schema.sql
var Schema string

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return openStore(db)
}

// openStore configures the pool and pings; db is closed when the ping fails
func openStore(db *sqlx.DB) (*Store, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an existing connection
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the products table when it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ListItems retrieves all products ordered by id
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.SelectContext(ctx, &items, "SELECT id, name, price FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return items, nil
}

// UpsertItems inserts or updates products in a single transaction
func (s *Store) UpsertItems(ctx context.Context, items []models.Item) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO products (id, name, price)
			VALUES (:id, :name, :price)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`, item)
		if err != nil {
			return fmt.Errorf("failed to upsert product %d: %w", item.ID, err)
		}
	}

	return tx.Commit()
}
