package machine

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
)

// LegacyResult is the outcome of a legacy /bot/withdraw call, decoded from
// whichever of the two known response schemas the machine firmware speaks.
type LegacyResult struct {
	Success bool
	// Shape records which schema matched: "flat", "soap", or "unrecognized".
	Shape string
	Raw   models.JSONMap
}

// LegacyWithdraw triggers a dispense on old firmware. The call only confirms
// receipt; the dispense outcome is learned out-of-band by polling.
func (c *Client) LegacyWithdraw(ctx context.Context, base string, amount int64, machineID, branchID string, headers http.Header) (*LegacyResult, error) {
	raw, err := c.postJSON(ctx, base+"/bot/withdraw", map[string]interface{}{
		"amount":     amount,
		"machine_id": machineID,
		"branch_id":  branchID,
	}, headers)
	if err != nil {
		return nil, err
	}
	return decodeLegacyWithdraw(raw), nil
}

// LegacyDeposit posts a deposit on old firmware; any 2xx is success.
func (c *Client) LegacyDeposit(ctx context.Context, base string, amount int64, machineID, branchID string, headers http.Header) (models.JSONMap, error) {
	return c.postJSON(ctx, base+"/bot/deposit", map[string]interface{}{
		"amount":     amount,
		"machine_id": machineID,
		"branch_id":  branchID,
	}, headers)
}

// decodeLegacyWithdraw tries the two known response shapes in order:
//
//  1. flat: {"transaction_status": "success"}
//  2. SOAP-derived: {"CashoutResponse": {"result": "0"}}
//
// Anything else decodes as an unrecognized failure rather than being silently
// treated as success or swallowed.
func decodeLegacyWithdraw(raw models.JSONMap) *LegacyResult {
	if status, ok := raw["transaction_status"].(string); ok {
		return &LegacyResult{
			Success: status == "success",
			Shape:   "flat",
			Raw:     raw,
		}
	}

	if nested, ok := raw["CashoutResponse"].(map[string]interface{}); ok {
		result, _ := nested["result"].(string)
		return &LegacyResult{
			Success: result == "0",
			Shape:   "soap",
			Raw:     raw,
		}
	}

	return &LegacyResult{Success: false, Shape: "unrecognized", Raw: raw}
}

// UpstreamFailure builds the audit payload persisted as machine_error when a
// call fails: the error, the outbound payload, and the correlation headers,
// so a stuck dispense can be reconciled by hand against machine logs.
func UpstreamFailure(err error, endpoint string, payload interface{}, meta CorrelationMeta) models.JSONMap {
	message := ""
	if err != nil {
		message = err.Error()
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
	}
	return models.JSONMap{
		"error":    message,
		"endpoint": endpoint,
		"payload":  payload,
		"headers": map[string]string{
			"X-Trace-Id":   meta.TraceID,
			"X-Request-Id": meta.RequestID,
			"X-Sale-Id":    meta.SaleID,
		},
	}
}
