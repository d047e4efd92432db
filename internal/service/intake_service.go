package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
	"github.com/kfhr/cashdesk-backend/internal/timeutil"
)

// WithdrawalWriter persists new withdrawal requests.
type WithdrawalWriter interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) error
}

// IntakeService validates and creates withdrawal requests coming from the
// chat bot or the web form.
type IntakeService struct {
	repo WithdrawalWriter
}

func NewIntakeService(repo WithdrawalWriter) *IntakeService {
	return &IntakeService{repo: repo}
}

// CreateWithdrawalInput carries raw intake fields before validation.
type CreateWithdrawalInput struct {
	UserID       string
	Amount       int64
	ReasonCode   string
	ReasonText   string
	LicensePlate string
	Location     string
}

// fieldError builds a validation error naming the offending field, so callers
// always learn which input to fix.
func fieldError(field, message string) *apperror.AppError {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s: %s", field, message))
}

// CreateWithdrawalRequest validates the input and persists a new request with
// status pending and a single-entry history. Validation failures never touch
// the store.
func (s *IntakeService) CreateWithdrawalRequest(ctx context.Context, input CreateWithdrawalInput) (*models.WithdrawalRequest, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fieldError("user_id", "is required")
	}
	if input.Amount <= 0 {
		return nil, fieldError("amount", "must be a positive integer")
	}

	reason, err := resolveWithdrawReason(input)
	if err != nil {
		return nil, err
	}

	location := machine.CanonicalBranch(input.Location)
	if location != models.BranchColdStorage && location != models.BranchNoniko {
		return nil, fieldError("location", "must be one of the known branches")
	}

	bkk, utc := timeutil.NowBangkokAndUTC()
	req := &models.WithdrawalRequest{
		RequestID:      machine.NewID(""),
		UserID:         input.UserID,
		Amount:         input.Amount,
		Reason:         reason,
		LicensePlate:   strings.TrimSpace(input.LicensePlate),
		Location:       location,
		Status:         models.WithdrawalStatusPending,
		StatusHistory:  models.StatusHistory{models.NewStatusEntry(models.WithdrawalStatusPending, input.UserID, bkk, utc)},
		CreatedAtBKK:   bkk.Format(time.RFC3339),
		CreatedAtUTC:   utc.Format(time.RFC3339),
		CreatedDateBKK: timeutil.DateBKK(bkk),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "cannot persist withdrawal request")
	}
	return req, nil
}

// resolveWithdrawReason maps the reason code to the stored reason text:
// closed-set codes resolve to their labels, "other" requires free text, and
// "fuel" additionally requires a license plate.
func resolveWithdrawReason(input CreateWithdrawalInput) (string, error) {
	switch input.ReasonCode {
	case models.WithdrawReasonIce:
		return models.WithdrawReasonLabels[models.WithdrawReasonIce], nil
	case models.WithdrawReasonFuel:
		if strings.TrimSpace(input.LicensePlate) == "" {
			return "", fieldError("license_plate", "is required when reason is fuel")
		}
		return models.WithdrawReasonLabels[models.WithdrawReasonFuel], nil
	case models.WithdrawReasonOther:
		text := strings.TrimSpace(input.ReasonText)
		if text == "" {
			return "", fieldError("reason", "free-text reason is required when reason is other")
		}
		return text, nil
	default:
		return "", fieldError("reason", "must be one of ice, fuel, other")
	}
}

// resolveDepositReason validates the deposit reason code set.
func resolveDepositReason(code, freeText string) (string, error) {
	switch code {
	case models.DepositReasonChange, models.DepositReasonDailySales:
		return models.DepositReasonLabels[code], nil
	case models.DepositReasonOther:
		text := strings.TrimSpace(freeText)
		if text == "" {
			return models.DepositReasonLabels[models.DepositReasonOther], nil
		}
		return text, nil
	default:
		return "", fieldError("reason", "must be one of change, daily_sales, other_deposit")
	}
}
