package dto

// LoginRequest carries approver UI credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates a new approver account (admin only).
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// CreateWithdrawalRequest is the web-form withdrawal intake payload.
type CreateWithdrawalRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Amount       int64  `json:"amount" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	ReasonText   string `json:"reason_text"`
	LicensePlate string `json:"license_plate"`
	Location     string `json:"location" binding:"required"`
}

// CreateDepositRequest is the deposit intake payload. Amount is optional for
// the session protocol: the machine counts the cash.
type CreateDepositRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Amount     *int64 `json:"amount"`
	Reason     string `json:"reason" binding:"required"`
	ReasonText string `json:"reason_text"`
	Location   string `json:"location" binding:"required"`
}

// EndDepositRequest optionally supplies the counted amount at end-of-session.
type EndDepositRequest struct {
	Amount *int64 `json:"amount"`
}

// WebhookEvent is one inbound chat event: either a typed text message or a
// button press carrying its postback data.
type WebhookEvent struct {
	UserID       string `json:"user_id" binding:"required"`
	Type         string `json:"type" binding:"required"`
	Text         string `json:"text"`
	PostbackData string `json:"postback_data"`
}
