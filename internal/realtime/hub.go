package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/statuscore-dev/statuscore/internal/status"
	"github.com/statuscore-dev/statuscore/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ClientMessage is what viewers send over the push channel.
type ClientMessage struct {
	Type         string `json:"type"` // "subscribe_status_page", "unsubscribe_status_page"
	StatusPageID uint   `json:"status_page_id"`
}

// Hub fans snapshot notifications out to every websocket viewer subscribed
// to a status page. Delivery is at-least-once and unordered; viewers apply
// snapshots through the sequence gate, so the hub never retries or
// deduplicates.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[*websocket.Conn]bool
	heartbeat   time.Duration
}

func NewHub(heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	return &Hub{
		subscribers: make(map[uint]map[*websocket.Conn]bool),
		heartbeat:   heartbeat,
	}
}

// Broadcast notifies all subscribers of a page that a newer snapshot
// exists. The payload is a re-fetch signal carrying the sequence, not the
// snapshot itself; viewers resolve it against the snapshot endpoint. Writes
// happen off the caller's goroutine so a slow client never stalls the
// mutation path that produced the snapshot.
func (h *Hub) Broadcast(statusPageID uint, snapshot status.Snapshot) {
	h.mu.RLock()
	clients, exists := h.subscribers[statusPageID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	h.mu.RUnlock()

	go func() {
		for _, conn := range clientsCopy {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for broadcast: %v", err)
				continue
			}

			err := conn.WriteJSON(map[string]interface{}{
				"type":           "status_page_updated",
				"status_page_id": statusPageID,
				"sequence":       snapshot.Sequence,
			})

			if err != nil {
				log.Printf("Failed to broadcast update to client: %v", err)
				h.drop(conn)
				conn.Close()
			}
		}
	}()
}

// SubscriberCount reports how many connections follow a page.
func (h *Hub) SubscriberCount(statusPageID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[statusPageID])
}

func (h *Hub) subscribe(statusPageID uint, conn *websocket.Conn) {
	h.mu.Lock()
	if h.subscribers[statusPageID] == nil {
		h.subscribers[statusPageID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[statusPageID][conn] = true
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(statusPageID uint, conn *websocket.Conn) {
	h.mu.Lock()
	if clients, exists := h.subscribers[statusPageID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.subscribers, statusPageID)
		}
	}
	h.mu.Unlock()
}

// drop removes a connection from every page it follows.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	for pageID, clients := range h.subscribers {
		if clients[conn] {
			delete(clients, conn)
			if len(clients) == 0 {
				delete(h.subscribers, pageID)
			}
		}
	}
	h.mu.Unlock()
}

// Serve upgrades the request and runs the connection's read loop. Viewers
// subscribe by sending subscribe_status_page messages; the hub answers each
// with a confirmation carrying the page id so the viewer knows when to do
// its reconciliation fetch.
func (h *Hub) Serve(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	defer func() {
		h.drop(conn)
		conn.Close()
		log.Printf("WebSocket connection closed")
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "Push channel established",
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go h.keepAlive(conn, done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline: %v", err)
			break
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Ignoring malformed client message: %v", err)
			continue
		}

		switch msg.Type {
		case "subscribe_status_page":
			h.subscribe(msg.StatusPageID, conn)

			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for subscription ack: %v", err)
				return
			}
			if err := conn.WriteJSON(map[string]interface{}{
				"type":           "subscribed",
				"status_page_id": msg.StatusPageID,
			}); err != nil {
				log.Printf("Failed to ack subscription: %v", err)
				return
			}
		case "unsubscribe_status_page":
			h.unsubscribe(msg.StatusPageID, conn)
		default:
			log.Printf("Ignoring unknown client message type: %s", msg.Type)
		}
	}
}

// keepAlive sends ping frames and heartbeat messages until the connection's
// read loop exits. Heartbeats let viewers distinguish a quiet page from a
// dead connection.
func (h *Hub) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	heartbeats := time.NewTicker(h.heartbeat)
	defer heartbeats.Stop()

	for {
		select {
		case <-done:
			return
		case <-pings.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-heartbeats.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(map[string]string{"type": "heartbeat"}); err != nil {
				return
			}
		}
	}
}
