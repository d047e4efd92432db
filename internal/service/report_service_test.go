package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/models"
)

func TestEnrichWithdrawals_DisplayTimestamp(t *testing.T) {
	views := EnrichWithdrawals([]models.WithdrawalRequest{
		{
			RequestID:      "a1b2c3d4",
			CreatedAtBKK:   "2026-08-31T14:30:00+07:00",
			CreatedDateBKK: "2026-08-31",
		},
	})

	assert.Len(t, views, 1)
	assert.Equal(t, "31 Aug 2026 14:30", views[0].CreatedAtBKKDisplay)
}

func TestEnrichWithdrawals_LegacyRowFallsBackToDate(t *testing.T) {
	views := EnrichWithdrawals([]models.WithdrawalRequest{
		{
			RequestID:      "legacy01",
			CreatedAtBKK:   "",
			CreatedDateBKK: "2024-01-15",
		},
	})

	assert.Equal(t, "15 Jan 2024", views[0].CreatedAtBKKDisplay)
}

func TestEnrichTransactions_FallsBackToSelectedDate(t *testing.T) {
	views := EnrichTransactions([]models.Transaction{
		{
			Name:         "เงินทอน",
			Amount:       500,
			SelectedDate: "2024-02-01",
		},
		{
			Name:         "ยอดขายประจำวัน",
			Amount:       1200,
			CreatedAtBKK: "2026-08-31T09:00:00+07:00",
			SelectedDate: "2026-08-31",
		},
	})

	assert.Equal(t, "01 Feb 2024", views[0].TransactionAtBKKDisplay)
	assert.Equal(t, "31 Aug 2026 09:00", views[1].TransactionAtBKKDisplay)
}

func TestEnrichDeposits_KeepsRecordFields(t *testing.T) {
	amount := int64(700)
	views := EnrichDeposits([]models.DepositRequest{
		{
			DepositRequestID: "d-a1b2c3d4",
			Amount:           &amount,
			Status:           models.DepositStatusCompleted,
			CreatedAtBKK:     "2026-08-31T10:15:00+07:00",
		},
	})

	assert.Equal(t, "d-a1b2c3d4", views[0].DepositRequestID)
	assert.Equal(t, models.DepositStatusCompleted, views[0].Status)
	assert.Equal(t, "31 Aug 2026 10:15", views[0].CreatedAtBKKDisplay)
}
