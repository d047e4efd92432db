package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/pkg/apperror"
)

type mockWithdrawalWriter struct {
	created []*models.WithdrawalRequest
}

func (m *mockWithdrawalWriter) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	m.created = append(m.created, req)
	return nil
}

func TestIntakeService_CreateWithdrawalRequest(t *testing.T) {
	store := &mockWithdrawalWriter{}
	svc := NewIntakeService(store)

	req, err := svc.CreateWithdrawalRequest(context.Background(), CreateWithdrawalInput{
		UserID:     "U100",
		Amount:     100,
		ReasonCode: models.WithdrawReasonIce,
		Location:   "โนนิโกะ",
	})

	assert.NoError(t, err)
	assert.Len(t, store.created, 1)
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, models.WithdrawalStatusPending, req.Status)
	assert.Equal(t, models.BranchNoniko, req.Location)
	assert.Equal(t, models.WithdrawReasonLabels[models.WithdrawReasonIce], req.Reason)
	assert.Len(t, req.StatusHistory, 1)
	assert.Equal(t, "U100", req.StatusHistory[0].By)
	assert.Equal(t, models.WithdrawalStatusPending, req.StatusHistory[0].Status)
	assert.NotEmpty(t, req.CreatedDateBKK)
}

func TestIntakeService_FuelRequiresLicensePlate(t *testing.T) {
	store := &mockWithdrawalWriter{}
	svc := NewIntakeService(store)

	_, err := svc.CreateWithdrawalRequest(context.Background(), CreateWithdrawalInput{
		UserID:     "U100",
		Amount:     500,
		ReasonCode: models.WithdrawReasonFuel,
		Location:   models.BranchColdStorage,
	})

	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "license_plate")
	// The store is never touched on a validation failure.
	assert.Empty(t, store.created)
}

func TestIntakeService_OtherRequiresFreeText(t *testing.T) {
	store := &mockWithdrawalWriter{}
	svc := NewIntakeService(store)

	_, err := svc.CreateWithdrawalRequest(context.Background(), CreateWithdrawalInput{
		UserID:     "U100",
		Amount:     200,
		ReasonCode: models.WithdrawReasonOther,
		Location:   models.BranchNoniko,
	})

	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "reason")
	assert.Empty(t, store.created)
}

func TestIntakeService_RejectsUnknownInputs(t *testing.T) {
	store := &mockWithdrawalWriter{}
	svc := NewIntakeService(store)

	cases := []struct {
		name  string
		input CreateWithdrawalInput
		field string
	}{
		{"missing user", CreateWithdrawalInput{Amount: 100, ReasonCode: models.WithdrawReasonIce, Location: models.BranchNoniko}, "user_id"},
		{"non-positive amount", CreateWithdrawalInput{UserID: "U1", Amount: 0, ReasonCode: models.WithdrawReasonIce, Location: models.BranchNoniko}, "amount"},
		{"unknown reason", CreateWithdrawalInput{UserID: "U1", Amount: 100, ReasonCode: "snacks", Location: models.BranchNoniko}, "reason"},
		{"unknown branch", CreateWithdrawalInput{UserID: "U1", Amount: 100, ReasonCode: models.WithdrawReasonIce, Location: "mars"}, "location"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateWithdrawalRequest(context.Background(), tc.input)
			assert.True(t, apperror.IsValidation(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
	assert.Empty(t, store.created)
}
