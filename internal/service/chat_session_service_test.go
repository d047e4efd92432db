package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatSessionService_ResetAndSave(t *testing.T) {
	svc := NewChatSessionService(time.Minute)

	session := svc.Reset("U1")
	assert.Equal(t, ChatStateChoosingAction, session.State)

	session.Flow = ChatFlowWithdraw
	session.Amount = 100
	svc.Save("U1", session)

	loaded, ok := svc.Get("U1")
	assert.True(t, ok)
	assert.Equal(t, int64(100), loaded.Amount)
	assert.Equal(t, ChatFlowWithdraw, loaded.Flow)
}

func TestChatSessionService_ExpiresAfterTTL(t *testing.T) {
	svc := NewChatSessionService(20 * time.Millisecond)

	svc.Reset("U1")
	_, ok := svc.Get("U1")
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = svc.Get("U1")
	assert.False(t, ok)
}

func TestChatSessionService_DeleteRemovesSession(t *testing.T) {
	svc := NewChatSessionService(time.Minute)

	svc.Reset("U1")
	svc.Delete("U1")

	_, ok := svc.Get("U1")
	assert.False(t, ok)
}
