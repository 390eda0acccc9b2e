package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/infofoot/nexo-backend/internal/middleware"
	"github.com/infofoot/nexo-backend/internal/services"
)

const (
	miningPongWait   = 90 * time.Second
	miningPingPeriod = 30 * time.Second
)

var miningUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer already.
		return true
	},
}

// MiningWebSocket streams the caller's mining state: an immediate snapshot
// on connect, then every engine event for that user (tick advances,
// finalization, collects). Browsers cannot set headers on WebSocket
// requests, so the token may also arrive as a query parameter.
func MiningWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	userID, ok := services.ValidateSession(token)
	if !ok {
		fail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := miningUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	services.RegisterMiningConn(userID, conn)
	defer services.UnregisterMiningConn(userID, conn)

	// Initial snapshot so the client renders without waiting for a tick.
	if data, err := mining.MiningData(r.Context(), userID); err == nil {
		_ = conn.WriteJSON(services.MiningEvent{
			Type:      services.EventMiningUpdate,
			UserID:    userID,
			Data:      data,
			Timestamp: time.Now().UTC(),
		})
	}

	// Server-side pings keep the read deadline moving for idle clients.
	// WriteControl may run concurrently with the fan-out writer.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(miningPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop only exists to notice the peer going away.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(miningPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(miningPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(miningPongWait))
	}
}
