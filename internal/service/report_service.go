package service

import (
	"context"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/timeutil"
)

// WithdrawalReader lists withdrawal requests for the read side.
type WithdrawalReader interface {
	List(ctx context.Context, date, location, status string) ([]models.WithdrawalRequest, error)
}

// DepositReader lists deposit requests for the read side.
type DepositReader interface {
	List(ctx context.Context, date, location, status string) ([]models.DepositRequest, error)
}

// TransactionReader lists money-book records for the read side.
type TransactionReader interface {
	List(ctx context.Context, date, storage string) ([]models.Transaction, error)
}

// ReportService is the read-only aggregation behind the approver UI.
type ReportService struct {
	withdrawals  WithdrawalReader
	deposits     DepositReader
	transactions TransactionReader
}

func NewReportService(w WithdrawalReader, d DepositReader, t TransactionReader) *ReportService {
	return &ReportService{withdrawals: w, deposits: d, transactions: t}
}

// WithdrawalView is a withdrawal request plus display-only fields.
type WithdrawalView struct {
	models.WithdrawalRequest
	CreatedAtBKKDisplay string `json:"created_at_bkk_display"`
}

// DepositView is a deposit request plus display-only fields.
type DepositView struct {
	models.DepositRequest
	CreatedAtBKKDisplay string `json:"created_at_bkk_display"`
}

// TransactionView is a money-book record plus display-only fields.
type TransactionView struct {
	models.Transaction
	TransactionAtBKKDisplay string `json:"transaction_at_bkk_display"`
}

// ListWithdrawals returns filtered withdrawal requests with display fields.
func (s *ReportService) ListWithdrawals(ctx context.Context, date, location, status string) ([]WithdrawalView, error) {
	requests, err := s.withdrawals.List(ctx, date, location, status)
	if err != nil {
		return nil, err
	}
	return EnrichWithdrawals(requests), nil
}

// ListDeposits returns filtered deposit requests with display fields.
func (s *ReportService) ListDeposits(ctx context.Context, date, location, status string) ([]DepositView, error) {
	requests, err := s.deposits.List(ctx, date, location, status)
	if err != nil {
		return nil, err
	}
	return EnrichDeposits(requests), nil
}

// ListTransactions returns filtered money-book records with display fields.
func (s *ReportService) ListTransactions(ctx context.Context, date, storage string) ([]TransactionView, error) {
	txs, err := s.transactions.List(ctx, date, storage)
	if err != nil {
		return nil, err
	}
	return EnrichTransactions(txs), nil
}

// EnrichWithdrawals is a pure transformation: copy records and add the
// Bangkok day+time display field, falling back to the bare date on legacy
// rows that predate full timestamps.
func EnrichWithdrawals(requests []models.WithdrawalRequest) []WithdrawalView {
	views := make([]WithdrawalView, 0, len(requests))
	for _, r := range requests {
		value := r.CreatedAtBKK
		if value == "" {
			value = r.CreatedDateBKK
		}
		views = append(views, WithdrawalView{
			WithdrawalRequest:   r,
			CreatedAtBKKDisplay: timeutil.FormatBKKDisplay(value),
		})
	}
	return views
}

// EnrichDeposits mirrors EnrichWithdrawals for deposit requests.
func EnrichDeposits(requests []models.DepositRequest) []DepositView {
	views := make([]DepositView, 0, len(requests))
	for _, r := range requests {
		value := r.CreatedAtBKK
		if value == "" {
			value = r.CreatedDateBKK
		}
		views = append(views, DepositView{
			DepositRequest:      r,
			CreatedAtBKKDisplay: timeutil.FormatBKKDisplay(value),
		})
	}
	return views
}

// EnrichTransactions adds the display timestamp, falling back to the money
// book's selected date on legacy rows.
func EnrichTransactions(txs []models.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		value := tx.CreatedAtBKK
		if value == "" {
			value = tx.SelectedDate
		}
		views = append(views, TransactionView{
			Transaction:             tx,
			TransactionAtBKKDisplay: timeutil.FormatBKKDisplay(value),
		})
	}
	return views
}
