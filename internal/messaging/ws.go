package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/baucrew/baucrew/internal/db"
	"github.com/baucrew/baucrew/internal/identity"
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type hub struct {
	threadID string
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
}

var (
	hubsMu sync.RWMutex
	hubs   = make(map[string]*hub)
)

func getHub(threadID string) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	if h, ok := hubs[threadID]; ok {
		return h
	}
	h := &hub{threadID: threadID, clients: make(map[*websocket.Conn]bool)}
	hubs[threadID] = h
	return h
}

func (h *hub) broadcast(evt wsEvent) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func (h *hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ThreadWS - websocket for realtime updates on an offer thread
func ThreadWS(c echo.Context) error {
	ident, ok := identity.FromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	threadID := c.Param("id")
	if threadID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing thread id"})
	}

	// Verify participation
	var customerID, providerID string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT customer_id, provider_id FROM message_threads WHERE id = $1`, threadID,
	).Scan(&customerID, &providerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "thread not found or inaccessible"})
	}
	if ident.ID != customerID && ident.ID != providerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this thread"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h := getHub(threadID)
	h.register(ws)

	h.broadcast(wsEvent{Type: "presence_join", Data: echo.Map{"user_id": ident.ID}})

	// Read loop (discard client messages; protocol is server push for now)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.unregister(ws)
			_ = ws.Close()
			h.broadcast(wsEvent{Type: "presence_leave", Data: echo.Map{"user_id": ident.ID}})
			break
		}
	}
	return nil
}

// BroadcastNewMessage - publish a new message event to a thread hub
func BroadcastNewMessage(threadID string, message interface{}) {
	h := getHub(threadID)
	h.broadcast(wsEvent{Type: "message_new", Data: message})
}
