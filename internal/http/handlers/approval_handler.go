package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// approvedListPath is where the approver UI lands after acting on a request.
const approvedListPath = "/approved-requests"

// ApprovalHandler exposes the approve/reject actions to the approver UI.
// Success redirects back to the request list; failures return a JSON error
// with the message and status code.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// Approve handles POST /api/approve/:request_id.
func (h *ApprovalHandler) Approve(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		common.RespondError(c, http.StatusBadRequest, "request_id is required")
		return
	}

	_, err := h.approvals.Approve(c.Request.Context(), requestID, models.ActorApproverUI)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, approvedListPath)
}

// Reject handles POST /api/reject/:request_id.
func (h *ApprovalHandler) Reject(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		common.RespondError(c, http.StatusBadRequest, "request_id is required")
		return
	}

	_, err := h.approvals.Reject(c.Request.Context(), requestID, models.ActorApproverUI)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, approvedListPath)
}
