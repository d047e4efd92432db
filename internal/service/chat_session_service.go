package service

import (
	"context"
	"sync"
	"time"
)

// Chat conversation states for the linear request menu.
const (
	ChatStateChoosingAction    = "choosing_action"
	ChatStateChoosingAmount    = "choosing_amount"
	ChatStateWaitingForAmount  = "waiting_for_amount"
	ChatStateChoosingReason    = "choosing_reason"
	ChatStateWaitingForReason  = "waiting_for_other_reason"
	ChatStateWaitingForPlate   = "waiting_for_license_plate"
	ChatStateChoosingLocation  = "waiting_for_location"
)

// Chat flows.
const (
	ChatFlowWithdraw = "withdraw"
	ChatFlowDeposit  = "deposit"
)

// ChatSession is the per-user conversation state for the chat menu.
type ChatSession struct {
	State        string
	Flow         string
	Amount       int64
	ReasonCode   string
	ReasonText   string
	LicensePlate string
	Location     string
}

type chatSessionEntry struct {
	session   *ChatSession
	expiresAt time.Time
}

// ChatSessionService keeps per-user conversation state with a TTL so an
// abandoned conversation does not linger. State lives in process memory,
// which is fine for the single-instance deployment this runs as; a second
// instance would need this behind a shared store.
type ChatSessionService struct {
	mu       sync.RWMutex
	sessions map[string]*chatSessionEntry
	ttl      time.Duration
}

func NewChatSessionService(ttl time.Duration) *ChatSessionService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ChatSessionService{
		sessions: make(map[string]*chatSessionEntry),
		ttl:      ttl,
	}
}

// Get returns the user's live session, if any.
func (s *ChatSessionService) Get(userID string) (*ChatSession, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.Delete(userID)
		return nil, false
	}
	return entry.session, true
}

// Reset starts a fresh conversation for the user.
func (s *ChatSessionService) Reset(userID string) *ChatSession {
	session := &ChatSession{State: ChatStateChoosingAction}
	s.Save(userID, session)
	return session
}

// Save stores the session and refreshes its TTL.
func (s *ChatSessionService) Save(userID string, session *ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &chatSessionEntry{
		session:   session,
		expiresAt: time.Now().Add(s.ttl),
	}
}

func (s *ChatSessionService) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// StartJanitor evicts expired sessions periodically until ctx is done.
func (s *ChatSessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *ChatSessionService) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, userID)
		}
	}
}
