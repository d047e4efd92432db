package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// RequestHandler handles withdrawal request intake from the web form.
type RequestHandler struct {
	intake *service.IntakeService
}

func NewRequestHandler(intake *service.IntakeService) *RequestHandler {
	return &RequestHandler{intake: intake}
}

// Create handles POST /api/requests.
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.intake.CreateWithdrawalRequest(c.Request.Context(), service.CreateWithdrawalInput{
		UserID:       req.UserID,
		Amount:       req.Amount,
		ReasonCode:   req.Reason,
		ReasonText:   req.ReasonText,
		LicensePlate: req.LicensePlate,
		Location:     req.Location,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.RequestCreatedResponse{
		RequestID:   created.RequestID,
		CreatedDate: created.CreatedDateBKK,
	})
}
