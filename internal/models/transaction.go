package models

// Transaction types as recorded in the money book.
const (
	TransactionTypeExpense = "expense"
	TransactionTypeIncome  = "income"
)

// Transaction is the derived financial record written once per confirmed money
// movement. JSON field names follow the money-book schema the reporting UI
// consumes (selectedStorage / selectedDate are historical).
type Transaction struct {
	ID              int64  `db:"id" json:"-"`
	Name            string `db:"name" json:"name"`
	Amount          int64  `db:"amount" json:"amount"`
	Type            string `db:"type" json:"type"`
	SelectedStorage string `db:"selected_storage" json:"selectedStorage"`
	SelectedDate    string `db:"selected_date" json:"selectedDate"`
	// RequestID back-references the withdrawal request, when applicable.
	RequestID        string `db:"request_id" json:"request_id,omitempty"`
	DepositRequestID string `db:"deposit_request_id" json:"deposit_request_id,omitempty"`
	CreatedAtBKK     string `db:"created_at_bkk" json:"created_at_bkk"`
	CreatedAtUTC     string `db:"created_at_utc" json:"created_at_utc"`
}
