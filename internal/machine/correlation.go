package machine

import (
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"
)

// CallerService is sent on every outbound call so machine-side logs can be
// attributed to this backend.
const CallerService = "cashdesk-backend"

// CorrelationMeta holds the three identifiers persisted alongside a request so
// machine-side logs can be matched to ours.
type CorrelationMeta struct {
	TraceID   string `json:"trace_id"`
	RequestID string `json:"request_id"`
	SaleID    string `json:"sale_id"`
}

// NewID returns prefix plus the first 8 hex characters of a fresh UUID, the
// identifier format shared with the machine API ("t-", "r-", "s-", "d-").
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + hex.EncodeToString(u[:])[:8]
}

// BuildCorrelationHeaders creates the standard correlation header bag for an
// outbound machine call. Missing identifiers are generated. The returned meta
// is intended for persistence on the request record.
func BuildCorrelationHeaders(saleID, traceID, requestID string) (http.Header, CorrelationMeta) {
	if traceID == "" {
		traceID = NewID("t-")
	}
	if requestID == "" {
		requestID = NewID("r-")
	}
	if saleID == "" {
		saleID = NewID("s-")
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Trace-Id", traceID)
	headers.Set("X-Request-Id", requestID)
	headers.Set("X-Sale-Id", saleID)
	headers.Set("X-Caller-Service", CallerService)

	return headers, CorrelationMeta{
		TraceID:   traceID,
		RequestID: requestID,
		SaleID:    saleID,
	}
}
