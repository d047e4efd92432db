package dto

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RequestCreatedResponse acknowledges a new withdrawal request.
type RequestCreatedResponse struct {
	RequestID   string `json:"request_id"`
	CreatedDate string `json:"created_date"`
}

// DepositCreatedResponse acknowledges a new deposit request. The branch base
// URL lets the UI proxy live telemetry for the session.
type DepositCreatedResponse struct {
	DepositRequestID string `json:"deposit_request_id"`
	SessionID        string `json:"session_id"`
	SeqNo            string `json:"seq_no"`
	BranchBaseURL    string `json:"branch_base_url"`
	Status           string `json:"status"`
}

// DepositStatusResponse is the polling payload for a deposit session.
type DepositStatusResponse struct {
	DepositRequestID string `json:"deposit_request_id"`
	Status           string `json:"status"`
	Amount           *int64 `json:"amount,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// ChatAction is one button in a chat menu reply.
type ChatAction struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// ChatReply is one outbound chat message: plain text or a button menu.
type ChatReply struct {
	Type    string       `json:"type"`
	Text    string       `json:"text"`
	Actions []ChatAction `json:"actions,omitempty"`
}

// WebhookResponse bundles the replies for one inbound chat event.
type WebhookResponse struct {
	Replies []ChatReply `json:"replies"`
}
