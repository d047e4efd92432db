package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kfhr/cashdesk-backend/internal/models"
)

type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a money-book record. A partial unique index on the request
// back-references makes repeated completion attempts a no-op, keeping the
// at-most-one-transaction-per-request invariant best-effort but cheap.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO transactions (
			name, amount, type, selected_storage, selected_date,
			request_id, deposit_request_id, created_at_bkk, created_at_utc
		) VALUES (
			:name, :amount, :type, :selected_storage, :selected_date,
			:request_id, :deposit_request_id, :created_at_bkk, :created_at_utc
		)
		ON CONFLICT DO NOTHING
	`, tx)
	return err
}

func (r *TransactionRepository) List(ctx context.Context, date, storage string) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE 1=1`
	args := []interface{}{}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND selected_date = $%d", len(args))
	}
	if storage != "" {
		args = append(args, storage)
		query += fmt.Sprintf(" AND selected_storage = $%d", len(args))
	}
	query += ` ORDER BY created_at_utc DESC`

	var txs []models.Transaction
	err := r.db.SelectContext(ctx, &txs, query, args...)
	return txs, err
}
