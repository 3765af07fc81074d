package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/holotree/internal/scene"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// stateMessage is pushed to every client.
type stateMessage struct {
	Type  string         `json:"type"`
	State scene.Snapshot `json:"state"`
}

// clientMessage is what the renderer sends back: hit-test results and
// manual orbit nudges.
type clientMessage struct {
	Type string  `json:"type"`
	ID   *int    `json:"id"`
	DY   float64 `json:"dy"`
	DX   float64 `json:"dx"`
}

// Hub pushes scene snapshots to WebSocket clients and applies their replies.
type Hub struct {
	scene *scene.Store
	every time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a hub pushing at the given interval (30 Hz when <= 0).
func NewHub(sc *scene.Store, every time.Duration) *Hub {
	if every <= 0 {
		every = time.Second / 30
	}
	return &Hub{
		scene:   sc,
		every:   every,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and reads client messages until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer h.remove(conn)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.handle(msg)
	}
}

func (h *Hub) handle(msg clientMessage) {
	switch msg.Type {
	case "hover":
		h.scene.SetHoveredObject(msg.ID)
	case "rotate":
		h.scene.UpdateRotation(msg.DY, msg.DX)
	default:
		log.Printf("websocket: unknown message type %q", msg.Type)
	}
}

// Run pushes snapshots until ctx is cancelled. Identical consecutive
// snapshots are not resent.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			last = nil
			continue
		}

		msg, err := json.Marshal(stateMessage{Type: "state", State: h.scene.Snapshot()})
		if err != nil {
			log.Printf("websocket: encode state: %v", err)
			continue
		}
		if bytes.Equal(msg, last) {
			continue
		}
		last = msg
		h.broadcast(msg)
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, conn)
	}
}
