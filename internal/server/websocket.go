package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// message is the envelope pushed to websocket clients.
type message struct {
	Type    string `json:"type"` // "state" or "result"
	Payload any    `json:"payload"`
}

// handleWebSocket pushes the session's result to the client once captured,
// then closes the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ws/sessions/")
	t, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// client-side close ends the wait
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	done := t.Done()
	if err := send(conn, message{Type: "state", Payload: t.State()}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			c, ok := t.Result()
			if !ok {
				// reset between capture and read; wait for the next test
				done = t.Done()
				continue
			}
			if err := send(conn, message{Type: "result", Payload: c}); err != nil {
				return
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "captured"),
				time.Now().Add(writeWait))
			return
		case <-gone:
			log.Debug().Str("session", id).Msg("websocket client disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func send(conn *websocket.Conn, m message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(m); err != nil {
		log.Warn().Err(err).Msg("websocket write failed")
		return err
	}
	return nil
}
