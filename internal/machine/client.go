package machine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
)

// Client talks to a branch cash machine's REST API. The base URL is supplied
// per call because each branch runs its own machine.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a machine client with a bounded per-call timeout. The
// machine answers plan/dispense calls within a few seconds; anything longer is
// treated as an upstream failure rather than waited out.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 || timeout > 30*time.Second {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PlanResult is the machine's answer to a cashout plan request.
type PlanResult struct {
	Success       bool
	Denominations models.Denominations
	Raw           models.JSONMap
}

// DispenseResult is the machine's answer to a cashout dispense request.
type DispenseResult struct {
	Success bool
	Raw     models.JSONMap
}

// SessionResult is the machine's answer to a replenishment session call.
type SessionResult struct {
	Success bool
	Raw     models.JSONMap
}

// TelemetryResult is the latest counted amount reported by the machine's
// socket feed.
type TelemetryResult struct {
	Success    bool
	AmountBaht int64
	Raw        models.JSONMap
}

// CashoutPlan asks the machine to compute a denomination breakdown for the
// amount. The raw body is preserved verbatim for the audit trail.
func (c *Client) CashoutPlan(ctx context.Context, base string, amount int64, headers http.Header) (*PlanResult, error) {
	raw, err := c.postJSON(ctx, base+"/cashout/plan", map[string]interface{}{"amount": float64(amount)}, headers)
	if err != nil {
		return nil, err
	}

	result := &PlanResult{Raw: raw}
	result.Success, _ = raw["success"].(bool)

	if denoms, ok := raw["denominations"].(map[string]interface{}); ok {
		result.Denominations = models.Denominations{}
		for value, count := range denoms {
			if n, ok := count.(float64); ok {
				result.Denominations[value] = int(n)
			}
		}
	}
	return result, nil
}

// CashoutRequest asks the machine to physically dispense per the plan.
func (c *Client) CashoutRequest(ctx context.Context, base string, denominations models.Denominations, headers http.Header) (*DispenseResult, error) {
	raw, err := c.postJSON(ctx, base+"/cashout/request", map[string]interface{}{"denominations": denominations}, headers)
	if err != nil {
		return nil, err
	}
	result := &DispenseResult{Raw: raw}
	result.Success, _ = raw["success"].(bool)
	return result, nil
}

// ReplenishmentStart opens a machine-side deposit counting session.
func (c *Client) ReplenishmentStart(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*SessionResult, error) {
	return c.sessionCall(ctx, base+"/replenishment/start", seqNo, sessionID, headers)
}

// ReplenishmentEnd closes the counting session; the machine commits the
// counted cash.
func (c *Client) ReplenishmentEnd(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*SessionResult, error) {
	return c.sessionCall(ctx, base+"/replenishment/end", seqNo, sessionID, headers)
}

// ReplenishmentCancel aborts the counting session and returns the notes.
func (c *Client) ReplenishmentCancel(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*SessionResult, error) {
	return c.sessionCall(ctx, base+"/replenishment/cancel", seqNo, sessionID, headers)
}

func (c *Client) sessionCall(ctx context.Context, url, seqNo, sessionID string, headers http.Header) (*SessionResult, error) {
	raw, err := c.postJSON(ctx, url, map[string]interface{}{"seq_no": seqNo, "session_id": sessionID}, headers)
	if err != nil {
		return nil, err
	}
	result := &SessionResult{Raw: raw}
	result.Success, _ = raw["success"].(bool)
	return result, nil
}

// SocketLatest reads the machine's latest counted-amount telemetry. Read-only.
func (c *Client) SocketLatest(ctx context.Context, base string, headers http.Header) (*TelemetryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/socket/latest", nil)
	if err != nil {
		return nil, err
	}
	applyHeaders(req, headers)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "machine telemetry call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apperror.New(apperror.ErrCodeUpstream, fmt.Sprintf("machine telemetry returned status %d", resp.StatusCode))
	}

	var raw models.JSONMap
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "machine telemetry body is not valid JSON")
	}

	result := &TelemetryResult{Raw: raw}
	result.Success, _ = raw["success"].(bool)
	if amount, ok := raw["amount_baht"].(float64); ok {
		result.AmountBaht = int64(amount)
	}
	return result, nil
}

// postJSON sends the payload and decodes the whole response body. Non-2xx
// statuses and transport errors come back as upstream errors; the caller
// decides what success=false means for its protocol.
func (c *Client) postJSON(ctx context.Context, url string, payload interface{}, headers http.Header) (models.JSONMap, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	applyHeaders(req, headers)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "machine call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody models.JSONMap
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, apperror.New(apperror.ErrCodeUpstream, fmt.Sprintf("machine returned status %d: %v", resp.StatusCode, errorBody))
	}

	var raw models.JSONMap
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "machine response is not valid JSON")
	}
	return raw, nil
}

func applyHeaders(req *http.Request, headers http.Header) {
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}
}
