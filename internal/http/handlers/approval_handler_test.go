package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/repository"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// stubApprovalRepo holds a single request and records mutations.
type stubApprovalRepo struct {
	request *models.WithdrawalRequest
}

func (s *stubApprovalRepo) GetByID(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	if s.request != nil && s.request.RequestID == requestID {
		return s.request, nil
	}
	return nil, repository.ErrRequestNotFound
}

func (s *stubApprovalRepo) TransitionStatus(ctx context.Context, requestID, from, to string, entry models.StatusEntry) (bool, error) {
	if s.request.Status != from {
		return false, nil
	}
	s.request.Status = to
	s.request.StatusHistory = append(s.request.StatusHistory, entry)
	return true, nil
}

func (s *stubApprovalRepo) SetStatus(ctx context.Context, requestID, to string, entry models.StatusEntry) error {
	s.request.Status = to
	s.request.StatusHistory = append(s.request.StatusHistory, entry)
	return nil
}

func (s *stubApprovalRepo) SetCorrelation(ctx context.Context, requestID, traceID, corrRequestID, saleID string) error {
	return nil
}

func (s *stubApprovalRepo) SetCashoutResult(ctx context.Context, requestID string, denominations models.Denominations, planRaw, requestRaw models.JSONMap) error {
	s.request.Denominations = denominations
	s.request.CashoutPlanResponse = planRaw
	s.request.CashoutRequestResponse = requestRaw
	return nil
}

func (s *stubApprovalRepo) SetMachineError(ctx context.Context, requestID string, machineError models.JSONMap) error {
	s.request.MachineError = machineError
	return nil
}

func (s *stubApprovalRepo) SetMachineResponse(ctx context.Context, requestID string, response models.JSONMap) error {
	s.request.MachineResponse = response
	return nil
}

// stubWithdrawMachine always plans and dispenses successfully.
type stubWithdrawMachine struct{}

func (stubWithdrawMachine) CashoutPlan(ctx context.Context, base string, amount int64, headers http.Header) (*machine.PlanResult, error) {
	return &machine.PlanResult{
		Success:       true,
		Denominations: models.Denominations{"10000": 1},
		Raw:           models.JSONMap{"success": true},
	}, nil
}

func (stubWithdrawMachine) CashoutRequest(ctx context.Context, base string, denominations models.Denominations, headers http.Header) (*machine.DispenseResult, error) {
	return &machine.DispenseResult{Success: true, Raw: models.JSONMap{"success": true}}, nil
}

func (stubWithdrawMachine) LegacyWithdraw(ctx context.Context, base string, amount int64, machineID, branchID string, headers http.Header) (*machine.LegacyResult, error) {
	return &machine.LegacyResult{Success: true, Shape: "flat", Raw: models.JSONMap{"transaction_status": "success"}}, nil
}

func newApprovalTestRouter(repo *stubApprovalRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := machine.NewBranchResolver("http://machine.local", nil)
	svc := service.NewApprovalService(repo, stubWithdrawMachine{}, resolver, config.WithdrawProtocolPlanDispense, "machine-1")
	handler := NewApprovalHandler(svc)

	r := gin.New()
	r.POST("/api/approve/:request_id", handler.Approve)
	r.POST("/api/reject/:request_id", handler.Reject)
	return r
}

func TestApprovalHandler_ApproveRedirectsOnSuccess(t *testing.T) {
	repo := &stubApprovalRepo{request: &models.WithdrawalRequest{
		RequestID: "a1b2c3d4",
		Amount:    100,
		Location:  models.BranchNoniko,
		Status:    models.WithdrawalStatusPending,
	}}
	r := newApprovalTestRouter(repo)

	req, _ := http.NewRequest("POST", "/api/approve/a1b2c3d4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, approvedListPath, w.Header().Get("Location"))
	assert.Equal(t, models.WithdrawalStatusApproved, repo.request.Status)
}

func TestApprovalHandler_ApproveUnknownIDReturnsJSONError(t *testing.T) {
	r := newApprovalTestRouter(&stubApprovalRepo{})

	req, _ := http.NewRequest("POST", "/api/approve/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestApprovalHandler_RejectRedirects(t *testing.T) {
	repo := &stubApprovalRepo{request: &models.WithdrawalRequest{
		RequestID: "a1b2c3d4",
		Amount:    100,
		Location:  models.BranchNoniko,
		Status:    models.WithdrawalStatusPending,
	}}
	r := newApprovalTestRouter(repo)

	req, _ := http.NewRequest("POST", "/api/reject/a1b2c3d4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, models.WithdrawalStatusRejected, repo.request.Status)
	if assert.NotEmpty(t, repo.request.StatusHistory) {
		last := repo.request.StatusHistory[len(repo.request.StatusHistory)-1]
		assert.Equal(t, models.ActorApproverUI, last.By)
	}
}
