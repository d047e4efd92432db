package machine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
)

func TestCashoutPlan_Success(t *testing.T) {
	var gotBody map[string]interface{}
	var gotTrace string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cashout/plan", r.URL.Path)
		gotTrace = r.Header.Get("X-Trace-Id")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"denominations": map[string]int{"10000": 1},
		})
	}))
	defer srv.Close()

	headers, _ := BuildCorrelationHeaders("s-test1234", "", "")
	client := NewClient(5 * time.Second)

	result, err := client.CashoutPlan(context.Background(), srv.URL, 100, headers)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.Denominations{"10000": 1}, result.Denominations)
	assert.Equal(t, float64(100), gotBody["amount"])
	assert.NotEmpty(t, gotTrace)
	// The raw body survives verbatim for the audit record.
	assert.Equal(t, true, result.Raw["success"])
}

func TestCashoutPlan_SuccessFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "not enough notes"})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	result, err := client.CashoutPlan(context.Background(), srv.URL, 100, nil)
	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Nil(t, result.Denominations)
}

func TestCashoutRequest_Non2xxIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"jam"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.CashoutRequest(context.Background(), srv.URL, models.Denominations{"2000": 2}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestCashoutRequest_NetworkErrorIsUpstream(t *testing.T) {
	client := NewClient(1 * time.Second)
	_, err := client.CashoutRequest(context.Background(), "http://127.0.0.1:1", models.Denominations{"2000": 2}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsUpstream(err))
}

func TestReplenishmentCalls_SendSessionPayload(t *testing.T) {
	var paths []string
	var lastBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	ctx := context.Background()

	start, err := client.ReplenishmentStart(ctx, srv.URL, "1", "d-abcdef12", nil)
	assert.NoError(t, err)
	assert.True(t, start.Success)
	assert.Equal(t, "d-abcdef12", lastBody["session_id"])
	assert.Equal(t, "1", lastBody["seq_no"])

	_, err = client.ReplenishmentEnd(ctx, srv.URL, "1", "d-abcdef12", nil)
	assert.NoError(t, err)
	_, err = client.ReplenishmentCancel(ctx, srv.URL, "1", "d-abcdef12", nil)
	assert.NoError(t, err)

	assert.Equal(t, []string{"/replenishment/start", "/replenishment/end", "/replenishment/cancel"}, paths)
}

func TestSocketLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/socket/latest", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "amount_baht": 1540})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	result, err := client.SocketLatest(context.Background(), srv.URL, nil)
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1540), result.AmountBaht)
}

func TestLegacyWithdraw_DualSchemas(t *testing.T) {
	cases := []struct {
		name    string
		body    map[string]interface{}
		success bool
		shape   string
	}{
		{"flat success", map[string]interface{}{"transaction_status": "success"}, true, "flat"},
		{"flat failure", map[string]interface{}{"transaction_status": "failed"}, false, "flat"},
		{"soap success", map[string]interface{}{"CashoutResponse": map[string]interface{}{"result": "0"}}, true, "soap"},
		{"soap failure", map[string]interface{}{"CashoutResponse": map[string]interface{}{"result": "17"}}, false, "soap"},
		{"unrecognized", map[string]interface{}{"whatever": 1}, false, "unrecognized"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/bot/withdraw", r.URL.Path)
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			client := NewClient(5 * time.Second)
			result, err := client.LegacyWithdraw(context.Background(), srv.URL, 80, "m1", "b1", nil)
			assert.NoError(t, err)
			assert.Equal(t, tc.success, result.Success)
			assert.Equal(t, tc.shape, result.Shape)
		})
	}
}

func TestUpstreamFailure_Payload(t *testing.T) {
	meta := CorrelationMeta{TraceID: "t-1", RequestID: "r-1", SaleID: "s-1"}
	err := apperror.New(apperror.ErrCodeUpstream, "machine returned status 500")

	payload := UpstreamFailure(err, "/cashout/plan", map[string]interface{}{"amount": 100.0}, meta)
	assert.Equal(t, "machine returned status 500", payload["error"])
	assert.Equal(t, "/cashout/plan", payload["endpoint"])
	headers := payload["headers"].(map[string]string)
	assert.Equal(t, "t-1", headers["X-Trace-Id"])
}

func TestUpstreamFailure_UnwrapsNestedAppError(t *testing.T) {
	meta := CorrelationMeta{TraceID: "t-2", RequestID: "r-2", SaleID: "s-2"}
	inner := apperror.Wrap(errors.New("dial tcp: i/o timeout"), apperror.ErrCodeUpstream, "machine call failed")
	wrapped := fmt.Errorf("approve request: %w", inner)

	payload := UpstreamFailure(wrapped, "/cashout/request", nil, meta)
	assert.Equal(t, "machine call failed: dial tcp: i/o timeout", payload["error"])
}
