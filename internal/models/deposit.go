package models

// Deposit request lifecycle. The session protocol creates the record at start
// with an unknown amount; the amount is filled in at end-of-session.
const (
	DepositStatusPending       = "pending"
	DepositStatusSessionActive = "replenishment_started"
	DepositStatusCompleted     = "completed"
	DepositStatusError         = "error"
	DepositStatusCancelled     = "cancelled"
)

type DepositRequest struct {
	DepositRequestID string `db:"deposit_request_id" json:"deposit_request_id"`
	UserID           string `db:"user_id" json:"user_id"`
	// Amount is nullable: under the session protocol it is unknown between
	// start and end.
	Amount     *int64 `db:"amount" json:"amount,omitempty"`
	ReasonCode string `db:"reason_code" json:"reason_code"`
	Reason     string `db:"reason" json:"reason"`
	Location   string `db:"location" json:"location"`
	BranchID   string `db:"branch_id" json:"branch_id"`

	// Machine-side replenishment session correlation.
	SessionID string `db:"session_id" json:"session_id"`
	SeqNo     string `db:"seq_no" json:"seq_no"`

	Status        string        `db:"status" json:"status"`
	ErrorMessage  string        `db:"error_message" json:"error_message,omitempty"`
	MachineError  JSONMap       `db:"machine_error" json:"machine_error,omitempty"`
	StatusHistory StatusHistory `db:"status_history" json:"status_history"`

	CreatedAtBKK   string `db:"created_at_bkk" json:"created_at_bkk"`
	CreatedAtUTC   string `db:"created_at_utc" json:"created_at_utc"`
	CreatedDateBKK string `db:"created_date_bkk" json:"created_date_bkk"`
}
