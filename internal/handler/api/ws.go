package api

import (
	"net/http"
	"sync"
	"time"

	models "BondPulse/internal/domain/models"
	xlogger "BondPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// refreshNotice is the message pushed to subscribers after every refresh.
type refreshNotice struct {
	Event     string    `json:"event"`
	Bonds     int       `json:"bonds"`
	CurveDate string    `json:"curve_date,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// UpdatesHub pushes refresh notifications to websocket subscribers.
type UpdatesHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewUpdatesHub(logger *xlogger.Logger) *UpdatesHub {
	return &UpdatesHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *UpdatesHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/updates", h.Serve)
}

// Serve upgrades the connection and keeps it registered until the peer goes
// away. Inbound frames are drained and discarded.
func (h *UpdatesHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", xlogger.Error(err))
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws subscriber connected", xlogger.Int("subscribers", n))

	go h.ping(conn)
	go h.drain(conn)
	return nil
}

// NotifyRefresh implements the screener's refresh listener.
func (h *UpdatesHub) NotifyRefresh(snap *models.BondSnapshot) {
	notice := refreshNotice{
		Event:     "refresh",
		Bonds:     len(snap.Bonds),
		FetchedAt: snap.FetchedAt,
	}
	if snap.Curve != nil {
		notice.CurveDate = snap.Curve.TradeDate.Format("2006-01-02")
	}
	h.broadcast(notice)
}

func (h *UpdatesHub) broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			h.dropLocked(conn)
		}
	}
}

func (h *UpdatesHub) ping(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		h.mu.Lock()
		_, alive := h.clients[conn]
		h.mu.Unlock()
		if !alive {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *UpdatesHub) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *UpdatesHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	h.dropLocked(conn)
	h.mu.Unlock()
}

func (h *UpdatesHub) dropLocked(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Close disconnects every subscriber.
func (h *UpdatesHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
