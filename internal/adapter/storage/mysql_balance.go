package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
)

// MySQLBalanceRepository persists Balance rows and their append-only history.
type MySQLBalanceRepository struct {
	db *sql.DB
}

func NewMySQLBalanceRepository(db *sql.DB) *MySQLBalanceRepository {
	return &MySQLBalanceRepository{db: db}
}

func (r *MySQLBalanceRepository) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	var balance domain.Balance
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, amount, version, created_at, updated_at
		FROM balances WHERE user_id = ?`, userID,
	).Scan(&balance.UserID, &balance.Amount, &balance.Version, &balance.CreatedAt, &balance.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return &balance, nil
}

func (r *MySQLBalanceRepository) Create(ctx context.Context, balance *domain.Balance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, amount, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		balance.UserID, balance.Amount, balance.Version, balance.CreatedAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert balance: %w", err)
	}
	return nil
}

// Update writes the balance conditionally and appends the history row in one
// transaction, so a version conflict never leaves an orphaned audit record.
func (r *MySQLBalanceRepository) Update(ctx context.Context, balance *domain.Balance, expectedVersion int, history *domain.BalanceHistory) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE balances
		SET amount = ?, version = ?, updated_at = NOW()
		WHERE user_id = ? AND version = ?`,
		balance.Amount, balance.Version, balance.UserID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.conflictOrMissing(ctx, balance.UserID)
	}

	var orderID sql.NullString
	if history.OrderID != "" {
		orderID = sql.NullString{String: history.OrderID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_histories (id, user_id, order_id, kind, amount, resulting_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		history.ID, history.UserID, orderID, history.Kind, history.Amount, history.ResultingBalance, history.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert balance history: %w", err)
	}

	return tx.Commit()
}

func (r *MySQLBalanceRepository) conflictOrMissing(ctx context.Context, userID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM balances WHERE user_id = ?)`, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe balance: %w", err)
	}
	if !exists {
		return domain.ErrBalanceNotFound
	}
	return domain.ErrVersionConflict
}
