package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"basicswap-orderbook-go/internal/dashboard"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Broadcaster pushes refresh events to every connected page over a websocket.
type Broadcaster struct {
	logger   *zap.Logger
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		logger:   logger.Named("ws"),
		clients:  make(map[*websocket.Conn]struct{}),
		// A nil CheckOrigin rejects handshakes whose Origin host differs from the request host.
		upgrader: websocket.Upgrader{},
	}
}

// Notify implements dashboard.Notifier.
func (b *Broadcaster) Notify(ev dashboard.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Debug("Dropping websocket client", zap.Error(err))
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler accepts websocket connections. Clients only listen; anything they
// send is discarded until the connection closes.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		go func() {
			defer b.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.Close()
		delete(b.clients, c)
	}
}
