package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shiomura/utakai/internal/domain"
	"github.com/shiomura/utakai/internal/feed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Trusted friend-group tool behind the passphrase gate.
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub tracks connected websocket clients. Writes are serialized under the
// lock; gorilla connections do not tolerate concurrent writers.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn] = struct{}{}
	slog.Info("ws: client connected", "total", len(h.conns))
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
		slog.Info("ws: client disconnected", "total", len(h.conns))
	}
}

func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Error("ws: write failed, dropping client", "error", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// SubscribeWS upgrades the client and streams the full collection: one
// snapshot immediately on connect, then one on every change anywhere in the
// collection. Clients converge on the latest state; intermediate snapshots
// may be skipped under races.
func (a *API) SubscribeWS(c *gin.Context) {
	if a.passphrase != "" && c.Query("passphrase") != a.passphrase {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "ws: upgrade failed", "error", err)
		return
	}

	// Initial snapshots are written before the connection joins the hub so
	// no broadcast can interleave with them.
	a.sendSnapshots(c.Request.Context(), conn)
	a.hub.add(conn)

	// Reads are only used to notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				a.hub.remove(conn)
				return
			}
		}
	}()
}

func (a *API) sendSnapshots(ctx context.Context, conn *websocket.Conn) {
	sessions, err := a.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "ws: initial session snapshot failed", "error", err)
		sessions = []domain.Session{}
	}
	a.sendNotification(conn, domain.EventNameSessionsChanged, sessions)

	names, err := a.store.Roster(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "ws: initial roster snapshot failed", "error", err)
		names = []string{}
	}
	a.sendNotification(conn, domain.EventNameRosterChanged, names)
}

func (a *API) sendNotification(conn *websocket.Conn, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("ws: marshal snapshot", "event", event, "error", err)
		return
	}

	b, err := json.Marshal(feed.Notification{Event: event, Data: raw})
	if err != nil {
		slog.Error("ws: marshal notification", "event", event, "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		slog.Error("ws: initial write failed", "error", err)
	}
}

// RunFeedPump forwards every feed notification to all connected clients. It
// blocks until the context is cancelled; the server runs it for the process
// lifetime.
func (a *API) RunFeedPump(ctx context.Context) error {
	unsubscribe, err := a.feed.SubscribeRaw(ctx, func(n feed.Notification) {
		b, err := json.Marshal(n)
		if err != nil {
			slog.ErrorContext(ctx, "ws: marshal feed notification", "error", err)
			return
		}
		a.hub.broadcast(b)
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	<-ctx.Done()
	return nil
}
