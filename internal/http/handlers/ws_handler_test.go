package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kfhr/cashdesk-backend/internal/service"
	"github.com/kfhr/cashdesk-backend/internal/ws"
)

func TestWSHandler_OriginAllowlist(t *testing.T) {
	h := NewWSHandler(ws.NewHub(), service.NewTokenManager("test-secret", time.Hour), []string{"http://localhost:3000"})

	req := httptest.NewRequest("GET", "/api/ws", nil)
	// Non-browser clients send no Origin header.
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://attacker.example")
	assert.False(t, h.upgrader.CheckOrigin(req))
}
