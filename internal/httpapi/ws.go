package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsSubscriberQueueSize = 256

// handleWebSocketLogs implements WS /ws/logs/:name?file=…&search=…: the
// server pushes one line per message until the socket closes.
func (s *Server) handleWebSocketLogs(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	file := r.URL.Query().Get("file")
	search := r.URL.Query().Get("search")

	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handleWebSocketLogs", "unknown service %q", name))
		return
	}
	if file == "" {
		writeError(w, fleeterr.Validation("handleWebSocketLogs", "missing file"))
		return
	}

	sub, err := s.facade.Follow(name, file, search, wsSubscriberQueueSize)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		s.log.Warnf("httpapi: websocket upgrade failed for %s/%s: %v", name, file, err)
		return
	}
	defer conn.Close()
	defer sub.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case line, ok := <-sub.Lines:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}
