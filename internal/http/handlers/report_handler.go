package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// ReportHandler is the read-only listing surface for the approver UI.
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ListWithdrawals handles GET /api/requests?date=&branch=&status=.
func (h *ReportHandler) ListWithdrawals(c *gin.Context) {
	views, err := h.reports.ListWithdrawals(c.Request.Context(),
		c.Query("date"), machine.CanonicalBranch(c.Query("branch")), c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"requests": views})
}

// ListDeposits handles GET /api/deposits?date=&branch=&status=.
func (h *ReportHandler) ListDeposits(c *gin.Context) {
	views, err := h.reports.ListDeposits(c.Request.Context(),
		c.Query("date"), machine.CanonicalBranch(c.Query("branch")), c.Query("status"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"deposits": views})
}

// ListTransactions handles GET /api/transactions?date=&storage=.
func (h *ReportHandler) ListTransactions(c *gin.Context) {
	views, err := h.reports.ListTransactions(c.Request.Context(),
		c.Query("date"), machine.CanonicalBranch(c.Query("storage")))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"transactions": views})
}
