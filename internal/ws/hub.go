package ws

import (
	"encoding/json"
	"sync"

	"github.com/kfhr/cashdesk-backend/internal/logger"
)

// Hub fans machine and workflow events out to every connected approver UI
// socket. The dashboard is a shared view, so there is no per-user routing.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
	}
}

// Run drives the hub loop; call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyRequestStatus pushes a withdrawal status change to the dashboard.
func (h *Hub) NotifyRequestStatus(requestID, status string) {
	h.emit("request_status", map[string]string{
		"request_id": requestID,
		"status":     status,
	})
}

// NotifyDepositTelemetry pushes the live counted amount of an active
// replenishment session.
func (h *Hub) NotifyDepositTelemetry(depositRequestID string, amountBaht int64) {
	h.emit("deposit_telemetry", map[string]interface{}{
		"deposit_request_id": depositRequestID,
		"amount_baht":        amountBaht,
	})
}

// emit serializes the event envelope: "type" names the event, "data" carries
// the payload.
func (h *Hub) emit(event string, data interface{}) {
	raw, err := json.Marshal(map[string]interface{}{
		"type": event,
		"data": data,
	})
	if err != nil {
		logger.Log.Errorf("ws: cannot serialize %s event: %v", event, err)
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		// The dashboard is best-effort telemetry; dropping beats blocking the
		// state machine behind a slow socket.
		logger.Log.Warnf("ws: broadcast buffer full, dropping %s event", event)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			go client.Close()
		}
	}
}
