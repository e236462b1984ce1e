package transport

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"fieldservice/app/usecase"
	"fieldservice/internal/domain/entity"
)

// StatusFeed fans accepted status transitions out to websocket subscribers.
// Slow or dead clients are dropped, never waited on.
type StatusFeed struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

var _ usecase.Notifier = (*StatusFeed)(nil)

func NewStatusFeed(logger *slog.Logger) *StatusFeed {
	return &StatusFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// GET /ws/status
func (f *StatusFeed) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	// Drain reads so we notice the peer closing.
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// NotifyStatusChange implements usecase.Notifier.
func (f *StatusFeed) NotifyStatusChange(update entity.StatusUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.clients {
		if err := conn.WriteJSON(update); err != nil {
			delete(f.clients, conn)
			_ = conn.Close()
		}
	}
}

func (f *StatusFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	_ = conn.Close()
}

// Close disconnects all subscribers.
func (f *StatusFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		_ = conn.Close()
		delete(f.clients, conn)
	}
}
