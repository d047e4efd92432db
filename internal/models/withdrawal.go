package models

import (
	"time"
)

// Withdrawal request lifecycle. A request enters awaiting_machine the moment
// the approver confirms it and before any machine call is made, so a crash
// mid-dispense always leaves a visible record.
const (
	WithdrawalStatusPending         = "pending"
	WithdrawalStatusAwaitingMachine = "awaiting_machine"
	WithdrawalStatusApproved        = "approved"
	WithdrawalStatusRejected        = "rejected"
	WithdrawalStatusError           = "error"
	// WithdrawalStatusMachinePoll marks a legacy fire-and-forget dispense whose
	// outcome is learned by polling rather than synchronously.
	WithdrawalStatusMachinePoll = "pending_machine_poll"
)

// StatusEntry is a single row in the append-only status history. Timestamps
// are stored as ISO strings in both Bangkok and UTC, matching the audit layout
// the approver tooling expects.
type StatusEntry struct {
	Status  string `json:"status"`
	AtBKK   string `json:"at_bkk"`
	AtUTC   string `json:"at_utc"`
	DateBKK string `json:"date_bkk"`
	By      string `json:"by"`
}

// NewStatusEntry builds a history entry stamped with the given instant.
func NewStatusEntry(status, by string, bkk, utc time.Time) StatusEntry {
	return StatusEntry{
		Status:  status,
		AtBKK:   bkk.Format(time.RFC3339),
		AtUTC:   utc.Format(time.RFC3339),
		DateBKK: bkk.Format("2006-01-02"),
		By:      by,
	}
}

type WithdrawalRequest struct {
	RequestID    string `db:"request_id" json:"request_id"`
	UserID       string `db:"user_id" json:"user_id"`
	Amount       int64  `db:"amount" json:"amount"`
	Reason       string `db:"reason" json:"reason"`
	LicensePlate string `db:"license_plate" json:"license_plate,omitempty"`
	Location     string `db:"location" json:"location"`
	Status       string `db:"status" json:"status"`

	StatusHistory StatusHistory `db:"status_history" json:"status_history"`

	// Audit payloads from the machine. Written once available, never removed.
	MachineResponse        JSONMap       `db:"machine_response" json:"machine_response,omitempty"`
	MachineError           JSONMap       `db:"machine_error" json:"machine_error,omitempty"`
	Denominations          Denominations `db:"denominations" json:"denominations,omitempty"`
	CashoutPlanResponse    JSONMap       `db:"cashout_plan_response" json:"cashout_plan_response,omitempty"`
	CashoutRequestResponse JSONMap       `db:"cashout_request_response" json:"cashout_request_response,omitempty"`

	// Correlation ids attached to the outbound machine calls.
	TraceID       string `db:"trace_id" json:"trace_id,omitempty"`
	CorrRequestID string `db:"corr_request_id" json:"corr_request_id,omitempty"`
	SaleID        string `db:"sale_id" json:"sale_id,omitempty"`

	CreatedAtBKK   string `db:"created_at_bkk" json:"created_at_bkk"`
	CreatedAtUTC   string `db:"created_at_utc" json:"created_at_utc"`
	CreatedDateBKK string `db:"created_date_bkk" json:"created_date_bkk"`

	// InsertedAt is the database write time. Rows imported from the old system
	// carry empty created_* strings; the backfill tool derives them from here.
	InsertedAt time.Time `db:"inserted_at" json:"-"`
}
