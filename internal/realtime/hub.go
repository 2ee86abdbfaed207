package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"energy-monitor/internal/auth"
	"energy-monitor/internal/observability/metrics"
	telemetry "energy-monitor/internal/telemetry/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	sub    Subscription
	closed bool
}

func (c *client) subscription() Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

func (c *client) setSubscription(sub Subscription) {
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
}

// trySend queues a frame without blocking. The mutex orders the send
// against shutdown, so a concurrent broadcast never hits a closed channel.
func (c *client) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans measurements out to connected WebSocket clients.
type Hub struct {
	secret     []byte
	sendBuffer int
	logger     zerolog.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub constructs a hub. Clients authenticate with a JWT passed as the
// token query parameter since browsers cannot set headers on WebSocket
// dials.
func NewHub(secret []byte, sendBuffer int, logger zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Hub{
		secret:     secret,
		sendBuffer: sendBuffer,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServeHTTP handles GET /ws.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := r.URL.Query().Get("token")
	if _, err := auth.ParseJWT(token, h.secret); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSClientConnected()

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast delivers a measurement to every client whose subscription
// matches. Slow clients drop frames rather than stall the hub.
func (h *Hub) Broadcast(m telemetry.Measurement) {
	payload, err := json.Marshal(m)
	if err != nil {
		h.logger.Warn().Err(err).Msg("measurement marshal failed")
		return
	}
	frame, err := json.Marshal(envelope{Type: "measurement", Data: payload})
	if err != nil {
		return
	}
	metrics.IncBroadcast()

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.subscription().Matches(m) {
			continue
		}
		if !c.trySend(frame) {
			metrics.IncDroppedFrame()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.shutdown()
		metrics.WSClientDisconnected()
	}
	_ = c.conn.Close()
}

type subscribeMessage struct {
	Type         string `json:"type"`
	WorkCenterID string `json:"workCenterId"`
	AreaID       string `json:"areaId"`
	SensorID     string `json:"sensorId"`
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.setSubscription(Subscription{
				WorkCenterID: msg.WorkCenterID,
				AreaID:       msg.AreaID,
				SensorID:     msg.SensorID,
			})
		case "unsubscribe":
			c.setSubscription(Subscription{})
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
