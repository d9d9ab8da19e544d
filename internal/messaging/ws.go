package messaging

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vaultworks/mythicalvault/internal/ledger"
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// wsClient serializes writes to one connection. gorilla/websocket allows at
// most one concurrent writer per conn, and broadcasts can overlap.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// adminHub fans redemption events out to every connected admin dashboard.
type adminHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*wsClient
}

var hub = &adminHub{clients: make(map[*websocket.Conn]*wsClient)}

func (h *adminHub) broadcast(evt wsEvent) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		_ = c.write(payload)
	}
}

func (h *adminHub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = &wsClient{conn: c}
	h.mu.Unlock()
}

func (h *adminHub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AdminWS - websocket for realtime redemption updates on the admin panel.
// Admin access is enforced by the route's guard; the protocol is server push
// only.
func AdminWS(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	hub.register(ws)

	// Read loop only detects disconnects; client messages are discarded
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			hub.unregister(ws)
			_ = ws.Close()
			break
		}
	}
	return nil
}

// BroadcastRedemptionCreated - publish a new pending request to admin dashboards
func BroadcastRedemptionCreated(req ledger.RedemptionRequest) {
	hub.broadcast(wsEvent{Type: "redemption_created", Data: req})
}

// BroadcastRedemptionCompleted - publish a processed request to admin dashboards
func BroadcastRedemptionCompleted(req ledger.RedemptionRequest) {
	hub.broadcast(wsEvent{Type: "redemption_completed", Data: req})
}
