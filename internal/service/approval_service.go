package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/logger"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
	"github.com/kfhr/cashdesk-backend/internal/repository"
	"github.com/kfhr/cashdesk-backend/internal/timeutil"
)

// ApprovalRepository is the persistence surface the approval state machine
// mutates. Status moves append history; audit payloads are write-once.
type ApprovalRepository interface {
	GetByID(ctx context.Context, requestID string) (*models.WithdrawalRequest, error)
	TransitionStatus(ctx context.Context, requestID, from, to string, entry models.StatusEntry) (bool, error)
	SetStatus(ctx context.Context, requestID, to string, entry models.StatusEntry) error
	SetCorrelation(ctx context.Context, requestID, traceID, corrRequestID, saleID string) error
	SetCashoutResult(ctx context.Context, requestID string, denominations models.Denominations, planRaw, requestRaw models.JSONMap) error
	SetMachineError(ctx context.Context, requestID string, machineError models.JSONMap) error
	SetMachineResponse(ctx context.Context, requestID string, response models.JSONMap) error
}

// WithdrawMachine is the slice of the machine client the approval flow uses.
type WithdrawMachine interface {
	CashoutPlan(ctx context.Context, base string, amount int64, headers http.Header) (*machine.PlanResult, error)
	CashoutRequest(ctx context.Context, base string, denominations models.Denominations, headers http.Header) (*machine.DispenseResult, error)
	LegacyWithdraw(ctx context.Context, base string, amount int64, machineID, branchID string, headers http.Header) (*machine.LegacyResult, error)
}

// StatusNotifier pushes request status changes to connected approver UIs.
type StatusNotifier interface {
	NotifyRequestStatus(requestID, status string)
}

// ApprovalService owns every withdrawal status transition after intake.
type ApprovalService struct {
	repo     ApprovalRepository
	machine  WithdrawMachine
	resolver *machine.BranchResolver
	notifier StatusNotifier

	protocol  string
	machineID string
}

func NewApprovalService(repo ApprovalRepository, m WithdrawMachine, resolver *machine.BranchResolver, protocol, machineID string) *ApprovalService {
	return &ApprovalService{
		repo:      repo,
		machine:   m,
		resolver:  resolver,
		protocol:  protocol,
		machineID: machineID,
	}
}

// SetNotifier attaches the websocket hub; nil is fine for tests and tools.
func (s *ApprovalService) SetNotifier(n StatusNotifier) {
	s.notifier = n
}

// ApproveOutcome reports what Approve did. NoOp means the request was already
// past pending and nothing was called or written.
type ApproveOutcome struct {
	Request *models.WithdrawalRequest
	NoOp    bool
}

// Approve drives a pending request through the machine to a terminal state.
//
// The pending -> awaiting_machine move is a single conditional update: it is
// both the duplicate-approval guard and the durable intent-to-call record. If
// that write cannot happen, the machine is never contacted. Once the machine
// has been contacted the request never returns to pending; failures land in
// status error with the full payload kept for manual reconciliation.
func (s *ApprovalService) Approve(ctx context.Context, requestID, actor string) (*ApproveOutcome, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot load withdrawal request")
	}

	if req.Amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "request has no valid amount")
	}
	if req.Location == "" {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "request has no location")
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	won, err := s.repo.TransitionStatus(ctx, requestID,
		models.WithdrawalStatusPending, models.WithdrawalStatusAwaitingMachine,
		models.NewStatusEntry(models.WithdrawalStatusAwaitingMachine, actor, bkk, utc))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot record intent to dispense")
	}
	if !won {
		// Already approved, rejected, errored, or a concurrent click got here
		// first. Treated as success so double-clicks never double-dispense.
		logger.Log.WithField("request_id", requestID).Info("approve: request not pending, no-op")
		return &ApproveOutcome{Request: req, NoOp: true}, nil
	}

	base := s.resolver.Resolve(req.Location)
	// The request id doubles as the sale id so machine logs line up with ours.
	headers, meta := machine.BuildCorrelationHeaders(requestID, "", "")
	if err := s.repo.SetCorrelation(ctx, requestID, meta.TraceID, meta.RequestID, meta.SaleID); err != nil {
		logger.Log.WithField("request_id", requestID).Warnf("approve: cannot persist correlation ids: %v", err)
	}

	if s.protocol == config.WithdrawProtocolLegacy {
		return s.approveLegacy(ctx, req, base, headers, meta)
	}
	return s.approvePlanDispense(ctx, req, base, headers, meta)
}

// approvePlanDispense runs the canonical two-step protocol: plan the
// denominations, then dispense them. No step is retried.
func (s *ApprovalService) approvePlanDispense(ctx context.Context, req *models.WithdrawalRequest, base string, headers http.Header, meta machine.CorrelationMeta) (*ApproveOutcome, error) {
	requestID := req.RequestID

	plan, err := s.machine.CashoutPlan(ctx, base, req.Amount, headers)
	if err != nil {
		return nil, s.failMachine(ctx, requestID, machine.UpstreamFailure(err, "/cashout/plan", map[string]interface{}{"amount": req.Amount}, meta), err)
	}
	if !plan.Success || len(plan.Denominations) == 0 {
		failure := models.JSONMap{"error": "plan rejected or missing denominations", "response": map[string]interface{}(plan.Raw)}
		return nil, s.failMachine(ctx, requestID, failure,
			apperror.New(apperror.ErrCodeUpstream, "machine could not plan the requested amount"))
	}

	dispense, err := s.machine.CashoutRequest(ctx, base, plan.Denominations, headers)
	if err != nil {
		return nil, s.failMachine(ctx, requestID, machine.UpstreamFailure(err, "/cashout/request", map[string]interface{}{"denominations": plan.Denominations}, meta), err)
	}
	if !dispense.Success {
		failure := models.JSONMap{"error": "dispense rejected", "response": map[string]interface{}(dispense.Raw)}
		return nil, s.failMachine(ctx, requestID, failure,
			apperror.New(apperror.ErrCodeUpstream, "machine refused to dispense"))
	}

	if err := s.repo.SetCashoutResult(ctx, requestID, plan.Denominations, plan.Raw, dispense.Raw); err != nil {
		logger.Log.WithField("request_id", requestID).Errorf("approve: cash dispensed but audit payload write failed: %v", err)
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	if err := s.repo.SetStatus(ctx, requestID, models.WithdrawalStatusApproved,
		models.NewStatusEntry(models.WithdrawalStatusApproved, models.ActorApproverUI, bkk, utc)); err != nil {
		// The money has moved; surface the persistence problem loudly but do
		// not pretend the dispense failed.
		logger.Log.WithField("request_id", requestID).Errorf("approve: cash dispensed but status write failed: %v", err)
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "dispense succeeded but status update failed")
	}
	s.notify(requestID, models.WithdrawalStatusApproved)

	updated, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		updated = req
	}
	return &ApproveOutcome{Request: updated}, nil
}

// approveLegacy fires the old /bot/withdraw trigger. Only a send failure is an
// error; an accepted trigger parks the request for out-of-band polling.
func (s *ApprovalService) approveLegacy(ctx context.Context, req *models.WithdrawalRequest, base string, headers http.Header, meta machine.CorrelationMeta) (*ApproveOutcome, error) {
	requestID := req.RequestID

	result, err := s.machine.LegacyWithdraw(ctx, base, req.Amount, s.machineID, machine.CanonicalBranch(req.Location), headers)
	if err != nil {
		return nil, s.failMachine(ctx, requestID, machine.UpstreamFailure(err, "/bot/withdraw", map[string]interface{}{"amount": req.Amount}, meta), err)
	}

	if err := s.repo.SetMachineResponse(ctx, requestID, result.Raw); err != nil {
		logger.Log.WithField("request_id", requestID).Warnf("approve: cannot persist machine acknowledgment: %v", err)
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	if err := s.repo.SetStatus(ctx, requestID, models.WithdrawalStatusMachinePoll,
		models.NewStatusEntry(models.WithdrawalStatusMachinePoll, models.ActorSystem, bkk, utc)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot park request for polling")
	}
	s.notify(requestID, models.WithdrawalStatusMachinePoll)

	updated, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		updated = req
	}
	return &ApproveOutcome{Request: updated}, nil
}

// failMachine records the failure payload, moves the request to error, and
// returns an upstream error. The request deliberately stays off pending so a
// possibly-dispensed amount remains visible to operators.
func (s *ApprovalService) failMachine(ctx context.Context, requestID string, failure models.JSONMap, cause error) error {
	if err := s.repo.SetMachineError(ctx, requestID, failure); err != nil {
		logger.Log.WithField("request_id", requestID).Errorf("approve: cannot persist machine error: %v", err)
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	if err := s.repo.SetStatus(ctx, requestID, models.WithdrawalStatusError,
		models.NewStatusEntry(models.WithdrawalStatusError, models.ActorSystem, bkk, utc)); err != nil {
		logger.Log.WithField("request_id", requestID).Errorf("approve: cannot persist error status: %v", err)
	}
	s.notify(requestID, models.WithdrawalStatusError)

	var appErr *apperror.AppError
	if errors.As(cause, &appErr) {
		return appErr
	}
	return apperror.Wrap(cause, apperror.ErrCodeUpstream, "machine call failed")
}

// Reject unconditionally moves the request to rejected. No machine call is
// made and, matching long-standing operator practice, no precondition is
// enforced: rejecting an errored request is a legitimate manual resolution.
func (s *ApprovalService) Reject(ctx context.Context, requestID, actor string) (*models.WithdrawalRequest, error) {
	bkk, utc := timeutil.NowBangkokAndUTC()
	err := s.repo.SetStatus(ctx, requestID, models.WithdrawalStatusRejected,
		models.NewStatusEntry(models.WithdrawalStatusRejected, actor, bkk, utc))
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot reject request")
	}
	s.notify(requestID, models.WithdrawalStatusRejected)
	return s.repo.GetByID(ctx, requestID)
}

func (s *ApprovalService) notify(requestID, status string) {
	if s.notifier != nil {
		s.notifier.NotifyRequestStatus(requestID, status)
	}
}
