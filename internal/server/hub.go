package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

const (
	broadcastQueueSize = 128
	writeTimeout       = 2 * time.Second
)

type wsClient struct {
	conn   *websocket.Conn
	cardID string
	mu     sync.Mutex
}

func (c *wsClient) wants(event model.Event) bool {
	return c.cardID == "" || event.CardID == "" || c.cardID == event.CardID
}

type hub struct {
	upgrader   websocket.Upgrader
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan model.Event
	done       chan struct{}
	closeOnce  sync.Once
	clients    map[*wsClient]struct{}
	logger     *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	h := &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan model.Event, broadcastQueueSize),
		done:       make(chan struct{}),
		clients:    make(map[*wsClient]struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	client := &wsClient{conn: conn, cardID: r.URL.Query().Get("card")}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := client.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish never blocks. When the queue is full, pending events are discarded
// and a single resync.required event takes their place so subscribers know
// to refetch.
func (h *hub) Publish(event model.Event) {
	select {
	case h.broadcast <- event:
		return
	default:
	}

drain:
	for {
		select {
		case <-h.broadcast:
		default:
			break drain
		}
	}
	select {
	case h.broadcast <- model.Event{Type: model.EventTypeResyncRequired, Timestamp: time.Now().UTC()}:
	default:
	}
}

func (h *hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				_ = client.conn.Close()
			}
		case event := <-h.broadcast:
			h.acceptPending()
			for client := range h.clients {
				if !client.wants(event) {
					continue
				}
				client.mu.Lock()
				_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				err := client.conn.WriteJSON(event)
				client.mu.Unlock()
				if err != nil {
					h.logger.Debug("websocket write failed", "error", err)
					delete(h.clients, client)
					_ = client.conn.Close()
				}
			}
		case <-h.done:
			for client := range h.clients {
				_ = client.conn.Close()
			}
			return
		}
	}
}

// acceptPending registers clients already waiting so an event published
// right after a connect is not missed.
func (h *hub) acceptPending() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		default:
			return
		}
	}
}
