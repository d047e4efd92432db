package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/goroutine"
	"github.com/kfhr/cashdesk-backend/internal/logger"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
	"github.com/kfhr/cashdesk-backend/internal/repository"
	"github.com/kfhr/cashdesk-backend/internal/timeutil"
)

// DepositStore is the persistence surface of the deposit orchestrator.
type DepositStore interface {
	Create(ctx context.Context, req *models.DepositRequest) error
	GetByID(ctx context.Context, depositRequestID string) (*models.DepositRequest, error)
	TransitionStatus(ctx context.Context, depositRequestID, from, to string, entry models.StatusEntry) (bool, error)
	Complete(ctx context.Context, depositRequestID string, amount *int64, entry models.StatusEntry) error
	SetError(ctx context.Context, depositRequestID, errorMessage string, machineError models.JSONMap, entry models.StatusEntry) error
}

// TransactionWriter records confirmed money movements.
type TransactionWriter interface {
	Create(ctx context.Context, tx *models.Transaction) error
}

// DepositMachine is the slice of the machine client the deposit flow uses.
type DepositMachine interface {
	ReplenishmentStart(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*machine.SessionResult, error)
	ReplenishmentEnd(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*machine.SessionResult, error)
	ReplenishmentCancel(ctx context.Context, base, seqNo, sessionID string, headers http.Header) (*machine.SessionResult, error)
	SocketLatest(ctx context.Context, base string, headers http.Header) (*machine.TelemetryResult, error)
	LegacyDeposit(ctx context.Context, base string, amount int64, machineID, branchID string, headers http.Header) (models.JSONMap, error)
}

// TelemetryNotifier pushes live counted amounts to approver UI sockets.
type TelemetryNotifier interface {
	NotifyDepositTelemetry(depositRequestID string, amountBaht int64)
}

// DepositService owns every deposit request status transition: the
// session-based replenishment protocol and the legacy single-shot deposit.
type DepositService struct {
	repo     DepositStore
	txs      TransactionWriter
	machine  DepositMachine
	resolver *machine.BranchResolver
	notifier TelemetryNotifier

	protocol  string
	machineID string
}

func NewDepositService(repo DepositStore, txs TransactionWriter, m DepositMachine, resolver *machine.BranchResolver, protocol, machineID string) *DepositService {
	return &DepositService{
		repo:      repo,
		txs:       txs,
		machine:   m,
		resolver:  resolver,
		protocol:  protocol,
		machineID: machineID,
	}
}

func (s *DepositService) SetNotifier(n TelemetryNotifier) {
	s.notifier = n
}

// CreateDepositInput carries raw deposit intake fields.
type CreateDepositInput struct {
	UserID     string
	Amount     *int64
	ReasonCode string
	ReasonText string
	Location   string
}

// Start validates the input, creates the deposit record, and opens the
// machine-side counting session (or, on the legacy protocol, fires the
// single-shot deposit on a detached worker).
//
// The record is written before the machine is contacted, mirroring the
// withdrawal side: money never moves without a persisted intent.
func (s *DepositService) Start(ctx context.Context, input CreateDepositInput) (*models.DepositRequest, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fieldError("user_id", "is required")
	}
	if input.Amount != nil && *input.Amount <= 0 {
		return nil, fieldError("amount", "must be a positive integer when supplied")
	}
	if s.protocol == config.DepositProtocolSimple && input.Amount == nil {
		return nil, fieldError("amount", "is required for the simple deposit protocol")
	}

	reason, err := resolveDepositReason(input.ReasonCode, input.ReasonText)
	if err != nil {
		return nil, err
	}

	location := machine.CanonicalBranch(input.Location)
	if location != models.BranchColdStorage && location != models.BranchNoniko {
		return nil, fieldError("location", "must be one of the known branches")
	}

	depositID := machine.NewID("d-")
	bkk, utc := timeutil.NowBangkokAndUTC()
	req := &models.DepositRequest{
		DepositRequestID: depositID,
		UserID:           input.UserID,
		Amount:           input.Amount,
		ReasonCode:       input.ReasonCode,
		Reason:           reason,
		Location:         location,
		BranchID:         location,
		SessionID:        depositID,
		SeqNo:            "1",
		Status:           models.DepositStatusPending,
		StatusHistory:    models.StatusHistory{models.NewStatusEntry(models.DepositStatusPending, input.UserID, bkk, utc)},
		CreatedAtBKK:     bkk.Format(time.RFC3339),
		CreatedAtUTC:     utc.Format(time.RFC3339),
		CreatedDateBKK:   timeutil.DateBKK(bkk),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot persist deposit request")
	}

	if s.protocol == config.DepositProtocolSimple {
		s.runSimpleDeposit(req)
		return req, nil
	}

	base := s.resolver.Resolve(location)
	headers, meta := machine.BuildCorrelationHeaders(depositID, "", "")

	result, err := s.machine.ReplenishmentStart(ctx, base, req.SeqNo, req.SessionID, headers)
	if err != nil {
		s.persistSessionError(ctx, depositID, "replenishment start failed", machine.UpstreamFailure(err, "/replenishment/start", sessionPayload(req), meta))
		return nil, err
	}
	if !result.Success {
		failure := models.JSONMap{"error": "replenishment start rejected", "response": map[string]interface{}(result.Raw)}
		s.persistSessionError(ctx, depositID, "replenishment start rejected", failure)
		return nil, apperror.New(apperror.ErrCodeUpstream, "machine refused to start the replenishment session")
	}

	bkk, utc = timeutil.NowBangkokAndUTC()
	if _, err := s.repo.TransitionStatus(ctx, depositID, models.DepositStatusPending, models.DepositStatusSessionActive,
		models.NewStatusEntry(models.DepositStatusSessionActive, models.ActorSystem, bkk, utc)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot mark session as started")
	}

	return s.repo.GetByID(ctx, depositID)
}

// End closes the counting session. The committed amount is the supplied one,
// falling back to the machine's latest telemetry when the amount was never
// learned during the session. A Transaction is written exactly here.
func (s *DepositService) End(ctx context.Context, depositRequestID string, suppliedAmount *int64) (*models.DepositRequest, error) {
	req, err := s.getDeposit(ctx, depositRequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.DepositStatusSessionActive && req.Status != models.DepositStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "deposit session is not active")
	}

	base := s.resolver.Resolve(req.Location)
	headers, meta := machine.BuildCorrelationHeaders(req.DepositRequestID, "", "")

	result, err := s.machine.ReplenishmentEnd(ctx, base, req.SeqNo, req.SessionID, headers)
	if err != nil {
		s.persistSessionError(ctx, req.DepositRequestID, "replenishment end failed", machine.UpstreamFailure(err, "/replenishment/end", sessionPayload(req), meta))
		return nil, err
	}
	if !result.Success {
		failure := models.JSONMap{"error": "replenishment end rejected", "response": map[string]interface{}(result.Raw)}
		s.persistSessionError(ctx, req.DepositRequestID, "replenishment end rejected", failure)
		return nil, apperror.New(apperror.ErrCodeUpstream, "machine refused to end the replenishment session")
	}

	amount := suppliedAmount
	if amount == nil {
		amount = req.Amount
	}
	if amount == nil {
		// Last resort: read the counted amount off the machine's telemetry.
		if telemetry, terr := s.machine.SocketLatest(ctx, base, headers); terr == nil && telemetry.Success {
			amount = &telemetry.AmountBaht
		} else if terr != nil {
			logger.Log.WithField("deposit_request_id", req.DepositRequestID).Warnf("deposit end: telemetry fallback failed: %v", terr)
		}
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	if err := s.repo.Complete(ctx, req.DepositRequestID, amount, models.NewStatusEntry(models.DepositStatusCompleted, models.ActorSystem, bkk, utc)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot complete deposit request")
	}

	if amount != nil {
		s.writeDepositTransaction(ctx, req, *amount)
	} else {
		logger.Log.WithField("deposit_request_id", req.DepositRequestID).Warn("deposit end: amount unknown, money-book record skipped")
	}

	return s.repo.GetByID(ctx, req.DepositRequestID)
}

// Cancel aborts the session. A cancelled session never produces a Transaction
// regardless of how far counting got.
func (s *DepositService) Cancel(ctx context.Context, depositRequestID string) (*models.DepositRequest, error) {
	req, err := s.getDeposit(ctx, depositRequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.DepositStatusSessionActive && req.Status != models.DepositStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "deposit session is not active")
	}

	base := s.resolver.Resolve(req.Location)
	headers, meta := machine.BuildCorrelationHeaders(req.DepositRequestID, "", "")

	result, err := s.machine.ReplenishmentCancel(ctx, base, req.SeqNo, req.SessionID, headers)
	if err != nil {
		s.persistSessionError(ctx, req.DepositRequestID, "replenishment cancel failed", machine.UpstreamFailure(err, "/replenishment/cancel", sessionPayload(req), meta))
		return nil, err
	}
	if !result.Success {
		failure := models.JSONMap{"error": "replenishment cancel rejected", "response": map[string]interface{}(result.Raw)}
		s.persistSessionError(ctx, req.DepositRequestID, "replenishment cancel rejected", failure)
		return nil, apperror.New(apperror.ErrCodeUpstream, "machine refused to cancel the replenishment session")
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	if _, err := s.repo.TransitionStatus(ctx, req.DepositRequestID, req.Status, models.DepositStatusCancelled,
		models.NewStatusEntry(models.DepositStatusCancelled, models.ActorSystem, bkk, utc)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot mark session as cancelled")
	}

	return s.repo.GetByID(ctx, req.DepositRequestID)
}

// GetStatus returns the record for status polling by the chat/UI layer.
func (s *DepositService) GetStatus(ctx context.Context, depositRequestID string) (*models.DepositRequest, error) {
	return s.getDeposit(ctx, depositRequestID)
}

// Telemetry proxies the machine's live counted amount for an active session
// and fans it out to connected approver UI sockets.
func (s *DepositService) Telemetry(ctx context.Context, depositRequestID string) (int64, error) {
	req, err := s.getDeposit(ctx, depositRequestID)
	if err != nil {
		return 0, err
	}

	base := s.resolver.Resolve(req.Location)
	headers, _ := machine.BuildCorrelationHeaders(req.DepositRequestID, "", "")

	telemetry, err := s.machine.SocketLatest(ctx, base, headers)
	if err != nil {
		return 0, err
	}
	if !telemetry.Success {
		return 0, apperror.New(apperror.ErrCodeUpstream, "machine telemetry unavailable")
	}

	if s.notifier != nil {
		s.notifier.NotifyDepositTelemetry(req.DepositRequestID, telemetry.AmountBaht)
	}
	return telemetry.AmountBaht, nil
}

// runSimpleDeposit fires the legacy single-shot deposit on a detached worker
// so the chat reply returns immediately; the caller learns the outcome by
// polling GetStatus.
func (s *DepositService) runSimpleDeposit(req *models.DepositRequest) {
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		base := s.resolver.Resolve(req.Location)
		headers, meta := machine.BuildCorrelationHeaders(req.DepositRequestID, "", "")

		_, err := s.machine.LegacyDeposit(ctx, base, *req.Amount, s.machineID, req.BranchID, headers)
		if err != nil {
			s.persistSessionError(ctx, req.DepositRequestID, "legacy deposit failed",
				machine.UpstreamFailure(err, "/bot/deposit", map[string]interface{}{"amount": *req.Amount}, meta))
			return
		}

		bkk, utc := timeutil.NowBangkokAndUTC()
		if err := s.repo.Complete(ctx, req.DepositRequestID, req.Amount,
			models.NewStatusEntry(models.DepositStatusCompleted, models.ActorSystem, bkk, utc)); err != nil {
			logger.Log.WithField("deposit_request_id", req.DepositRequestID).Errorf("simple deposit: cannot complete record: %v", err)
			return
		}
		s.writeDepositTransaction(ctx, req, *req.Amount)
	})
}

// writeDepositTransaction records the confirmed income. Failures are logged,
// not propagated: the deposit itself has already been committed by the
// machine, and the unique back-reference index makes retries safe.
func (s *DepositService) writeDepositTransaction(ctx context.Context, req *models.DepositRequest, amount int64) {
	bkk, utc := timeutil.NowBangkokAndUTC()
	tx := &models.Transaction{
		Name:             req.Reason,
		Amount:           amount,
		Type:             models.TransactionTypeIncome,
		SelectedStorage:  req.Location,
		SelectedDate:     timeutil.DateBKK(bkk),
		DepositRequestID: req.DepositRequestID,
		CreatedAtBKK:     bkk.Format(time.RFC3339),
		CreatedAtUTC:     utc.Format(time.RFC3339),
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		logger.Log.WithField("deposit_request_id", req.DepositRequestID).Errorf("deposit: cannot write money-book record: %v", err)
	}
}

func (s *DepositService) getDeposit(ctx context.Context, depositRequestID string) (*models.DepositRequest, error) {
	req, err := s.repo.GetByID(ctx, depositRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrDepositNotFound) {
			return nil, apperror.ErrDepositRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot load deposit request")
	}
	return req, nil
}

// persistSessionError keeps a durable error record for a failed session call
// before the error is surfaced to the caller.
func (s *DepositService) persistSessionError(ctx context.Context, depositRequestID, message string, failure models.JSONMap) {
	bkk, utc := timeutil.NowBangkokAndUTC()
	if err := s.repo.SetError(ctx, depositRequestID, message, failure,
		models.NewStatusEntry(models.DepositStatusError, models.ActorSystem, bkk, utc)); err != nil {
		logger.Log.WithField("deposit_request_id", depositRequestID).Errorf("deposit: cannot persist session error: %v", err)
	}
}

func sessionPayload(req *models.DepositRequest) map[string]interface{} {
	return map[string]interface{}{
		"seq_no":     req.SeqNo,
		"session_id": req.SessionID,
	}
}
