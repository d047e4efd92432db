package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

type stubWithdrawalWriter struct {
	created []*models.WithdrawalRequest
}

func (s *stubWithdrawalWriter) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	s.created = append(s.created, req)
	return nil
}

func newWebhookTestRouter(writer *stubWithdrawalWriter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	sessions := service.NewChatSessionService(time.Minute)
	intake := service.NewIntakeService(writer)
	handler := NewWebhookHandler(sessions, intake, nil)

	r := gin.New()
	r.POST("/webhook", handler.Handle)
	return r
}

func postWebhookEvent(t *testing.T, r *gin.Engine, event dto.WebhookEvent) dto.WebhookResponse {
	t.Helper()

	body, err := json.Marshal(event)
	assert.NoError(t, err)

	req, _ := http.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.WebhookResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWebhookHandler_FullWithdrawConversation(t *testing.T) {
	writer := &stubWithdrawalWriter{}
	r := newWebhookTestRouter(writer)
	userID := "U900"

	resp := postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "เมนู"})
	if assert.Len(t, resp.Replies, 1) {
		assert.Equal(t, "buttons", resp.Replies[0].Type)
	}

	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "menu_withdraw_cash"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "select_amount|custom"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "250"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "select_reason|fuel"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "กข-1234"})
	resp = postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "select_location|noniko"})

	if assert.Len(t, resp.Replies, 1) {
		assert.Equal(t, "text", resp.Replies[0].Type)
		assert.Contains(t, resp.Replies[0].Text, "250")
	}

	if assert.Len(t, writer.created, 1) {
		created := writer.created[0]
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, int64(250), created.Amount)
		assert.Equal(t, "กข-1234", created.LicensePlate)
		assert.Equal(t, models.BranchNoniko, created.Location)
		assert.Equal(t, models.WithdrawalStatusPending, created.Status)
	}
}

func TestWebhookHandler_NonNumericAmountReprompts(t *testing.T) {
	writer := &stubWithdrawalWriter{}
	r := newWebhookTestRouter(writer)
	userID := "U901"

	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "เมนู"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "menu_withdraw_cash"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "select_amount|custom"})
	resp := postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "ห้าร้อย"})

	if assert.Len(t, resp.Replies, 1) {
		assert.Contains(t, resp.Replies[0].Text, "ตัวเลข")
	}
	assert.Empty(t, writer.created)
}

func TestWebhookHandler_UnknownEventType(t *testing.T) {
	r := newWebhookTestRouter(&stubWithdrawalWriter{})

	body, _ := json.Marshal(dto.WebhookEvent{UserID: "U1", Type: "sticker"})
	req, _ := http.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_MenuKeywordRestartsMidFlow(t *testing.T) {
	writer := &stubWithdrawalWriter{}
	r := newWebhookTestRouter(writer)
	userID := "U902"

	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "เมนู"})
	postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "postback", PostbackData: "menu_withdraw_cash"})
	resp := postWebhookEvent(t, r, dto.WebhookEvent{UserID: userID, Type: "text", Text: "เมนู"})

	if assert.Len(t, resp.Replies, 1) {
		assert.Equal(t, "buttons", resp.Replies[0].Type)
		assert.Contains(t, resp.Replies[0].Text, "เมนู")
	}
}
