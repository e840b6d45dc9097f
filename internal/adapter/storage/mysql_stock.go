package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
)

// MySQLStockRepository persists Stock rows. The version column exists only
// for the conditional-update predicate and is never exposed past the ports.
type MySQLStockRepository struct {
	db *sql.DB
}

func NewMySQLStockRepository(db *sql.DB) *MySQLStockRepository {
	return &MySQLStockRepository{db: db}
}

func (r *MySQLStockRepository) Get(ctx context.Context, productID string) (*domain.Stock, error) {
	var stock domain.Stock
	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, quantity, version, created_at, updated_at
		FROM stocks WHERE product_id = ?`, productID,
	).Scan(&stock.ProductID, &stock.Quantity, &stock.Version, &stock.CreatedAt, &stock.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	return &stock, nil
}

func (r *MySQLStockRepository) Create(ctx context.Context, stock *domain.Stock) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stocks (product_id, quantity, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		stock.ProductID, stock.Quantity, stock.Version, stock.CreatedAt, stock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Update applies the already-mutated aggregate only if the stored version
// still equals expectedVersion. Zero rows affected means either a stale
// version or a missing row; a follow-up probe tells them apart because only
// the former may be retried.
func (r *MySQLStockRepository) Update(ctx context.Context, stock *domain.Stock, expectedVersion int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE stocks
		SET quantity = ?, version = ?, updated_at = NOW()
		WHERE product_id = ? AND version = ?`,
		stock.Quantity, stock.Version, stock.ProductID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.conflictOrMissing(ctx, stock.ProductID)
	}
	return nil
}

func (r *MySQLStockRepository) conflictOrMissing(ctx context.Context, productID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM stocks WHERE product_id = ?)`, productID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe stock: %w", err)
	}
	if !exists {
		return domain.ErrStockNotFound
	}
	return domain.ErrVersionConflict
}
