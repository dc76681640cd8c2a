package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sievecore "github.com/rawblock/sieve"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // admin surface is observability-only, not a trust boundary
	},
}

// matchMessage is what a websocket client receives for each engine match:
// the filter that fired, the chain it fired on, and the event's identity
// (the full event payload stays internal — this is a notification feed,
// not a data export).
type matchMessage struct {
	FilterID uint64 `json:"filter_id"`
	Chain    string `json:"chain"`
	Kind     string `json:"kind"`
	Identity string `json:"identity"`
}

// Hub fans engine matches out to every connected websocket client.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
	log       zerolog.Logger
}

// NewHub builds an empty Hub. Call Run in a goroutine before any client
// connects.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
		log:       log,
	}
}

// Run drains the broadcast channel to every connected client until it is
// closed.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed, dropping client")
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and registers the
// connection as a broadcast target.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mutex.Unlock()
	h.log.Info().Int("clients", count).Msg("websocket client connected")

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			h.log.Info().Int("clients", remaining).Msg("websocket client disconnected")
		}()
		// Reads only drive disconnect detection — the feed is one-way.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends raw JSON bytes to every connected client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Msg("websocket broadcast channel full, dropping message")
	}
}

// BroadcastMatch JSON-encodes a sieve.Match and fans it out.
func (h *Hub) BroadcastMatch(m sievecore.Match) {
	payload, err := json.Marshal(matchMessage{
		FilterID: m.FilterID,
		Chain:    m.Chain.String(),
		Kind:     m.Event.Kind().String(),
		Identity: m.Event.Identity(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal match for websocket broadcast")
		return
	}
	h.Broadcast(payload)
}
