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

var ErrRequestNotFound = errors.New("withdrawal request not found")

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO withdraw_requests (
			request_id, user_id, amount, reason, license_plate, location, status,
			status_history, created_at_bkk, created_at_utc, created_date_bkk
		) VALUES (
			:request_id, :user_id, :amount, :reason, :license_plate, :location, :status,
			:status_history, :created_at_bkk, :created_at_utc, :created_date_bkk
		)
	`, req)
	return err
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM withdraw_requests WHERE request_id = $1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// TransitionStatus atomically moves the request from one status to another,
// appending a history entry in the same statement. Returns false when the
// request was not in the expected status, which is how concurrent approvals
// lose the race without a second dispense.
func (r *WithdrawalRepository) TransitionStatus(ctx context.Context, requestID, from, to string, entry models.StatusEntry) (bool, error) {
	entryJSON, err := json.Marshal(models.StatusHistory{entry})
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET status = $3, status_history = status_history || $4::jsonb
		WHERE request_id = $1 AND status = $2
	`, requestID, from, to, entryJSON)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetStatus moves the request to a status unconditionally (reject, and the
// awaiting_machine -> error/approved legs that only this process performs).
func (r *WithdrawalRepository) SetStatus(ctx context.Context, requestID, to string, entry models.StatusEntry) error {
	entryJSON, err := json.Marshal(models.StatusHistory{entry})
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET status = $2, status_history = status_history || $3::jsonb
		WHERE request_id = $1
	`, requestID, to, entryJSON)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// SetCorrelation stores the outbound correlation ids on the request.
func (r *WithdrawalRepository) SetCorrelation(ctx context.Context, requestID, traceID, corrRequestID, saleID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET trace_id = $2, corr_request_id = $3, sale_id = $4
		WHERE request_id = $1
	`, requestID, traceID, corrRequestID, saleID)
	return err
}

// SetCashoutResult persists the successful plan/dispense round trip verbatim.
func (r *WithdrawalRepository) SetCashoutResult(ctx context.Context, requestID string, denominations models.Denominations, planRaw, requestRaw models.JSONMap) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET denominations = $2, cashout_plan_response = $3, cashout_request_response = $4
		WHERE request_id = $1
	`, requestID, denominations, planRaw, requestRaw)
	return err
}

// SetMachineError records a failed machine interaction. COALESCE keeps any
// earlier error payload from being overwritten by a later, emptier one.
func (r *WithdrawalRepository) SetMachineError(ctx context.Context, requestID string, machineError models.JSONMap) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET machine_error = COALESCE(machine_error, '{}'::jsonb) || $2::jsonb
		WHERE request_id = $1
	`, requestID, machineError)
	return err
}

// SetMachineResponse stores the legacy fire-and-forget acknowledgment body.
func (r *WithdrawalRepository) SetMachineResponse(ctx context.Context, requestID string, response models.JSONMap) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdraw_requests SET machine_response = $2 WHERE request_id = $1
	`, requestID, response)
	return err
}

// List returns requests filtered by Bangkok date, branch, and status. Empty
// filters are skipped.
func (r *WithdrawalRepository) List(ctx context.Context, date, location, status string) ([]models.WithdrawalRequest, error) {
	query := `SELECT * FROM withdraw_requests WHERE 1=1`
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

	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	return requests, err
}
