package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kfhr/cashdesk-backend/internal/models"
)

var ErrDepositNotFound = errors.New("deposit request not found")

type DepositRepository struct {
	db *sqlx.DB
}

func NewDepositRepository(db *sqlx.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, req *models.DepositRequest) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO deposit_requests (
			deposit_request_id, user_id, amount, reason_code, reason, location, branch_id,
			session_id, seq_no, status, error_message, status_history,
			created_at_bkk, created_at_utc, created_date_bkk
		) VALUES (
			:deposit_request_id, :user_id, :amount, :reason_code, :reason, :location, :branch_id,
			:session_id, :seq_no, :status, :error_message, :status_history,
			:created_at_bkk, :created_at_utc, :created_date_bkk
		)
	`, req)
	return err
}

func (r *DepositRepository) GetByID(ctx context.Context, depositRequestID string) (*models.DepositRequest, error) {
	var req models.DepositRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM deposit_requests WHERE deposit_request_id = $1`, depositRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// TransitionStatus atomically moves the deposit between statuses, appending a
// history entry. Returns false when the current status did not match.
func (r *DepositRepository) TransitionStatus(ctx context.Context, depositRequestID, from, to string, entry models.StatusEntry) (bool, error) {
	entryJSON, err := json.Marshal(models.StatusHistory{entry})
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE deposit_requests
		SET status = $3, status_history = status_history || $4::jsonb
		WHERE deposit_request_id = $1 AND status = $2
	`, depositRequestID, from, to, entryJSON)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Complete marks the session finished and fills in the amount, which may have
// been unknown until end-of-session.
func (r *DepositRepository) Complete(ctx context.Context, depositRequestID string, amount *int64, entry models.StatusEntry) error {
	entryJSON, err := json.Marshal(models.StatusHistory{entry})
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE deposit_requests
		SET status = $2, amount = COALESCE($3, amount), status_history = status_history || $4::jsonb
		WHERE deposit_request_id = $1
	`, depositRequestID, models.DepositStatusCompleted, amount, entryJSON)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrDepositNotFound
	}
	return nil
}

// SetError records a failed session call with its audit payload.
func (r *DepositRepository) SetError(ctx context.Context, depositRequestID, errorMessage string, machineError models.JSONMap, entry models.StatusEntry) error {
	entryJSON, err := json.Marshal(models.StatusHistory{entry})
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE deposit_requests
		SET status = $2, error_message = $3,
		    machine_error = COALESCE(machine_error, '{}'::jsonb) || $4::jsonb,
		    status_history = status_history || $5::jsonb
		WHERE deposit_request_id = $1
	`, depositRequestID, models.DepositStatusError, errorMessage, machineError, entryJSON)
	return err
}

func (r *DepositRepository) List(ctx context.Context, date, location, status string) ([]models.DepositRequest, error) {
	query := `SELECT * FROM deposit_requests WHERE 1=1`
	args := []interface{}{}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(" AND created_date_bkk = $%d", len(args))
	}
	if location != "" {
		args = append(args, location)
		query += fmt.Sprintf(" AND location = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at_utc DESC`

	var requests []models.DepositRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	return requests, err
}
