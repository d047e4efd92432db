package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// DepositHandler drives the replenishment session from the UI side.
type DepositHandler struct {
	deposits *service.DepositService
	resolver *machine.BranchResolver
}

func NewDepositHandler(deposits *service.DepositService, resolver *machine.BranchResolver) *DepositHandler {
	return &DepositHandler{deposits: deposits, resolver: resolver}
}

// Create handles POST /api/deposits: intake plus session start.
func (h *DepositHandler) Create(c *gin.Context) {
	var req dto.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.deposits.Start(c.Request.Context(), service.CreateDepositInput{
		UserID:     req.UserID,
		Amount:     req.Amount,
		ReasonCode: req.Reason,
		ReasonText: req.ReasonText,
		Location:   req.Location,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.DepositCreatedResponse{
		DepositRequestID: created.DepositRequestID,
		SessionID:        created.SessionID,
		SeqNo:            created.SeqNo,
		BranchBaseURL:    h.resolver.Resolve(created.Location),
		Status:           created.Status,
	})
}

// End handles POST /api/deposits/:deposit_request_id/end.
func (h *DepositHandler) End(c *gin.Context) {
	var req dto.EndDepositRequest
	// The body is optional: an empty body means "use the machine's count".
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	updated, err := h.deposits.End(c.Request.Context(), c.Param("deposit_request_id"), req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, updated)
}

// Cancel handles POST /api/deposits/:deposit_request_id/cancel.
func (h *DepositHandler) Cancel(c *gin.Context) {
	updated, err := h.deposits.Cancel(c.Request.Context(), c.Param("deposit_request_id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, updated)
}

// Status handles GET /api/deposits/:deposit_request_id/status.
func (h *DepositHandler) Status(c *gin.Context) {
	req, err := h.deposits.GetStatus(c.Request.Context(), c.Param("deposit_request_id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.DepositStatusResponse{
		DepositRequestID: req.DepositRequestID,
		Status:           req.Status,
		Amount:           req.Amount,
		ErrorMessage:     req.ErrorMessage,
	})
}

// Telemetry handles GET /api/deposits/:deposit_request_id/telemetry: the live
// counted amount for an in-progress session.
func (h *DepositHandler) Telemetry(c *gin.Context) {
	amount, err := h.deposits.Telemetry(c.Request.Context(), c.Param("deposit_request_id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"amount_baht": amount})
}
