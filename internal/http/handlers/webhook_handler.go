package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/logger"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// Chat event types.
const (
	webhookEventText     = "text"
	webhookEventPostback = "postback"
)

// menuKeyword restarts the conversation from any state.
const menuKeyword = "เมนู"

// WebhookHandler drives the linear chat dialogue: action, amount, reason,
// optional free text or license plate, location, then hands the collected
// fields to the intake services. The conversation itself carries no business
// rules; every validation lives in the services.
type WebhookHandler struct {
	sessions *service.ChatSessionService
	intake   *service.IntakeService
	deposits *service.DepositService
}

func NewWebhookHandler(sessions *service.ChatSessionService, intake *service.IntakeService, deposits *service.DepositService) *WebhookHandler {
	return &WebhookHandler{sessions: sessions, intake: intake, deposits: deposits}
}

// Handle serves POST /webhook.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var event dto.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid webhook event")
		return
	}

	var replies []dto.ChatReply
	switch event.Type {
	case webhookEventText:
		replies = h.handleText(c, event.UserID, event.Text)
	case webhookEventPostback:
		replies = h.handlePostback(c, event.UserID, event.PostbackData)
	default:
		common.RespondError(c, http.StatusBadRequest, "unknown event type")
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.WebhookResponse{Replies: replies})
}

func (h *WebhookHandler) handleText(c *gin.Context, userID, text string) []dto.ChatReply {
	text = strings.TrimSpace(text)

	if strings.EqualFold(text, menuKeyword) {
		h.sessions.Reset(userID)
		return []dto.ChatReply{actionMenu()}
	}

	session, ok := h.sessions.Get(userID)
	if !ok {
		h.sessions.Reset(userID)
		return []dto.ChatReply{actionMenu()}
	}

	switch session.State {
	case service.ChatStateWaitingForAmount:
		amount, err := strconv.ParseInt(text, 10, 64)
		if err != nil || amount <= 0 {
			return []dto.ChatReply{textReply("⚠️ กรุณากรอกจำนวนเงินเป็นตัวเลขเท่านั้น")}
		}
		session.Amount = amount
		session.State = service.ChatStateChoosingReason
		h.sessions.Save(userID, session)
		return []dto.ChatReply{reasonMenu(session.Flow)}

	case service.ChatStateWaitingForReason:
		if text == "" {
			return []dto.ChatReply{textReply("⚠️ กรุณากรอกเหตุผลให้ครบถ้วน")}
		}
		session.ReasonText = text
		session.State = service.ChatStateChoosingLocation
		h.sessions.Save(userID, session)
		return []dto.ChatReply{locationMenu()}

	case service.ChatStateWaitingForPlate:
		if text == "" {
			return []dto.ChatReply{textReply("⚠️ กรุณากรอกทะเบียนรถ")}
		}
		session.LicensePlate = text
		session.State = service.ChatStateChoosingLocation
		h.sessions.Save(userID, session)
		return []dto.ChatReply{locationMenu()}
	}

	return []dto.ChatReply{textReply("📌 พิมพ์ \"เมนู\" เพื่อเริ่มรายการใหม่")}
}

func (h *WebhookHandler) handlePostback(c *gin.Context, userID, data string) []dto.ChatReply {
	parts := strings.Split(data, "|")
	action := parts[0]
	value := ""
	if len(parts) > 1 {
		value = parts[1]
	}

	session, ok := h.sessions.Get(userID)
	if !ok {
		session = h.sessions.Reset(userID)
	}

	switch action {
	case "menu_withdraw_cash":
		session.Flow = service.ChatFlowWithdraw
		session.State = service.ChatStateChoosingAmount
		h.sessions.Save(userID, session)
		return []dto.ChatReply{amountMenu()}

	case "menu_deposit_cash":
		// The machine counts deposited cash, so the flow skips the amount step.
		session.Flow = service.ChatFlowDeposit
		session.State = service.ChatStateChoosingReason
		h.sessions.Save(userID, session)
		return []dto.ChatReply{reasonMenu(session.Flow)}

	case "select_amount":
		if value == "custom" {
			session.State = service.ChatStateWaitingForAmount
			h.sessions.Save(userID, session)
			return []dto.ChatReply{textReply("📌 กรุณาพิมพ์จำนวนเงินที่ต้องการเบิก (ตัวเลขเท่านั้น)")}
		}
		amount, err := strconv.ParseInt(value, 10, 64)
		if err != nil || amount <= 0 {
			return []dto.ChatReply{textReply("⚠️ กรุณาเลือกจำนวนเงินให้ถูกต้อง")}
		}
		session.Amount = amount
		session.State = service.ChatStateChoosingReason
		h.sessions.Save(userID, session)
		return []dto.ChatReply{reasonMenu(session.Flow)}

	case "select_reason":
		session.ReasonCode = value
		switch value {
		case models.WithdrawReasonOther, models.DepositReasonOther:
			session.State = service.ChatStateWaitingForReason
			h.sessions.Save(userID, session)
			return []dto.ChatReply{textReply("📌 กรุณาพิมพ์เหตุผล")}
		case models.WithdrawReasonFuel:
			session.State = service.ChatStateWaitingForPlate
			h.sessions.Save(userID, session)
			return []dto.ChatReply{textReply("📌 กรุณาพิมพ์ทะเบียนรถ")}
		default:
			session.State = service.ChatStateChoosingLocation
			h.sessions.Save(userID, session)
			return []dto.ChatReply{locationMenu()}
		}

	case "select_location":
		session.Location = value
		return h.submit(c, userID, session)
	}

	return []dto.ChatReply{textReply("📌 พิมพ์ \"เมนู\" เพื่อเริ่มรายการใหม่")}
}

// submit hands the collected conversation to the intake services and replies
// with a Thai summary. The session is cleared in every outcome; a validation
// error restarts the conversation rather than stranding the user mid-state.
func (h *WebhookHandler) submit(c *gin.Context, userID string, session *service.ChatSession) []dto.ChatReply {
	defer h.sessions.Delete(userID)

	if session.Flow == service.ChatFlowDeposit {
		created, err := h.deposits.Start(c.Request.Context(), service.CreateDepositInput{
			UserID:     userID,
			ReasonCode: session.ReasonCode,
			ReasonText: session.ReasonText,
			Location:   session.Location,
		})
		if err != nil {
			logger.Log.WithField("user_id", userID).Warnf("webhook: deposit intake failed: %v", err)
			return []dto.ChatReply{textReply("⚠️ ไม่สามารถเริ่มรายการฝากเงินได้ กรุณาลองใหม่โดยพิมพ์ \"เมนู\"")}
		}
		return []dto.ChatReply{textReply(fmt.Sprintf(
			"✅ เริ่มรายการฝากเงินแล้ว (รหัส %s)\n📍 สาขา: %s\n💵 กรุณานำเงินใส่เครื่องนับเงิน",
			created.DepositRequestID, models.BranchLabels[created.Location]))}
	}

	created, err := h.intake.CreateWithdrawalRequest(c.Request.Context(), service.CreateWithdrawalInput{
		UserID:       userID,
		Amount:       session.Amount,
		ReasonCode:   session.ReasonCode,
		ReasonText:   session.ReasonText,
		LicensePlate: session.LicensePlate,
		Location:     session.Location,
	})
	if err != nil {
		logger.Log.WithField("user_id", userID).Warnf("webhook: withdrawal intake failed: %v", err)
		return []dto.ChatReply{textReply("⚠️ ไม่สามารถบันทึกคำขอได้ กรุณาลองใหม่โดยพิมพ์ \"เมนู\"")}
	}

	return []dto.ChatReply{textReply(fmt.Sprintf(
		"✅ คำขอเบิกเงินถูกบันทึกและรอการอนุมัติ\n💰 จำนวนเงิน: %d บาท\n📌 เหตุผล: %s\n📍 สถานที่รับเงิน: %s\n🔄 กรุณารอการอนุมัติจากผู้ดูแล",
		created.Amount, created.Reason, models.BranchLabels[created.Location]))}
}

func textReply(text string) dto.ChatReply {
	return dto.ChatReply{Type: "text", Text: text}
}

func actionMenu() dto.ChatReply {
	return dto.ChatReply{
		Type: "buttons",
		Text: "📌 กรุณาเลือกเมนูที่ต้องการ",
		Actions: []dto.ChatAction{
			{Label: "เบิกเงินสด", Data: "menu_withdraw_cash"},
			{Label: "ฝากเงินสด", Data: "menu_deposit_cash"},
		},
	}
}

func amountMenu() dto.ChatReply {
	return dto.ChatReply{
		Type: "buttons",
		Text: "📌 กรุณาเลือกจำนวนเงินที่ต้องการเบิก",
		Actions: []dto.ChatAction{
			{Label: "40 บาท", Data: "select_amount|40"},
			{Label: "80 บาท", Data: "select_amount|80"},
			{Label: "100 บาท", Data: "select_amount|100"},
			{Label: "กรอกเอง", Data: "select_amount|custom"},
		},
	}
}

func reasonMenu(flow string) dto.ChatReply {
	if flow == service.ChatFlowDeposit {
		return dto.ChatReply{
			Type: "buttons",
			Text: "📌 กรุณาเลือกประเภทเงินฝาก",
			Actions: []dto.ChatAction{
				{Label: models.DepositReasonLabels[models.DepositReasonChange], Data: "select_reason|" + models.DepositReasonChange},
				{Label: models.DepositReasonLabels[models.DepositReasonDailySales], Data: "select_reason|" + models.DepositReasonDailySales},
				{Label: "อื่นๆ", Data: "select_reason|" + models.DepositReasonOther},
			},
		}
	}
	return dto.ChatReply{
		Type: "buttons",
		Text: "📌 กรุณาเลือกเหตุผลในการเบิกเงิน",
		Actions: []dto.ChatAction{
			{Label: models.WithdrawReasonLabels[models.WithdrawReasonIce], Data: "select_reason|" + models.WithdrawReasonIce},
			{Label: models.WithdrawReasonLabels[models.WithdrawReasonFuel], Data: "select_reason|" + models.WithdrawReasonFuel},
			{Label: "อื่นๆ", Data: "select_reason|" + models.WithdrawReasonOther},
		},
	}
}

func locationMenu() dto.ChatReply {
	return dto.ChatReply{
		Type: "buttons",
		Text: "📌 กรุณาเลือกสถานที่รับเงิน",
		Actions: []dto.ChatAction{
			{Label: models.BranchLabels[models.BranchColdStorage], Data: "select_location|" + models.BranchColdStorage},
			{Label: models.BranchLabels[models.BranchNoniko], Data: "select_location|" + models.BranchNoniko},
		},
	}
}
