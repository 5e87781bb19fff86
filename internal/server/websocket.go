package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/sendpair/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// watchSettings streams settings snapshots over a websocket. The first
// message is sent once the initial load completed; after that every applied
// mutation produces a message, with intermediate versions possibly skipped
// for slow readers.
func (s *Server) watchSettings(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Failed to upgrade to WebSocket",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	s.watchers.Add(1)
	defer s.watchers.Done()

	remoteAddr := r.RemoteAddr
	logging.Debug("Settings watcher connected", zap.String("remote_addr", remoteAddr))

	sub := s.deps.Settings.Subscribe()
	defer func() {
		sub.Close()
		_ = conn.Close()
		logging.Debug("Settings watcher disconnected", zap.String("remote_addr", remoteAddr))
	}()

	// The read loop only handles control frames and detects the client going away
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				// Coordinator closed
				s.writeClose(conn, websocket.CloseGoingAway, "settings closed")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshotResponse(snap, true)); err != nil {
				logging.Debug("Failed to write settings snapshot",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-clientGone:
			return

		case <-s.stop:
			s.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return

		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
