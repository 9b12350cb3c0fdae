package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

const (
	livePingEvery = 30 * time.Second
	liveWriteWait = 10 * time.Second
	liveBuffer    = 64
)

// LiveMessage is pushed to live feed subscribers for every new inspection.
type LiveMessage struct {
	Type          string       `json:"type"`
	InspectionID  string       `json:"inspection_id"`
	SiteID        string       `json:"site_id,omitempty"`
	RiskScore     int          `json:"risk_score"`
	RiskLevel     risk.Level   `json:"risk_level"`
	Urgency       risk.Urgency `json:"action_urgency"`
	CriticalCount int          `json:"critical_count"`
	WarningCount  int          `json:"warning_count"`
	Degraded      bool         `json:"degraded,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Hub fans new inspections out to websocket subscribers.
// Slow subscribers lose messages instead of blocking inspections.
type Hub struct {
	mu       sync.Mutex
	clients  map[*liveClient]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

type liveClient struct {
	conn *websocket.Conn
	send chan LiveMessage
}

// NewHub builds a hub. origins "*" accepts any Origin header.
func NewHub(log *zap.Logger, origins []string) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		clients: map[*liveClient]struct{}{},
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Publish implements inspections.Publisher.
func (h *Hub) Publish(in *inspection.Inspection) {
	msg := LiveMessage{
		Type:          "inspection",
		InspectionID:  in.ID,
		SiteID:        in.Site.SiteID,
		RiskScore:     in.Assessment.Score,
		RiskLevel:     in.Assessment.Level,
		Urgency:       in.Assessment.Urgency,
		CriticalCount: in.Assessment.CriticalCount,
		WarningCount:  in.Assessment.WarningCount,
		Degraded:      in.Analysis != nil && in.Analysis.Degraded,
		CreatedAt:     in.CreatedAt,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("live feed subscriber is slow, dropping message", zap.String("inspection_id", in.ID))
		}
	}
}

// Len is the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and subscribes it to the feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &liveClient{conn: conn, send: make(chan LiveMessage, liveBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(livePingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; the feed is server to client.
func (c *liveClient) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("live feed read error", zap.Error(err))
			}
			return
		}
	}
}
