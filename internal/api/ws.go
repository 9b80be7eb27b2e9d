package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Telemetry sources run on the operations network; the HTTP layer in
	// front of us enforces origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the inbound envelope. Type selects the operation; the other
// fields are populated depending on it.
type wsMessage struct {
	Type     string          `json:"type"`
	DroneID  string          `json:"drone_id,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// handleWebsocket speaks the persistent telemetry protocol: register, update
// and ping requests from the client, telemetry_update pushes from the hub.
// One goroutine owns the write side; the read loop and the snapshot stream
// both feed it through channels.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	subID, snapshots := s.registry.Subscribe()
	defer s.registry.Unsubscribe(subID)

	replies := make(chan any, 8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if !s.wsSend(conn, map[string]any{"type": "telemetry_update", "data": snap}) {
					return
				}
			case msg, ok := <-replies:
				if !ok {
					return
				}
				if !s.wsSend(conn, msg) {
					return
				}
			}
		}
	}()

	s.logger.Info("websocket client connected", "subscriber", subID)
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		reply := s.wsDispatch(msg)
		select {
		case replies <- reply:
		case <-done:
			close(replies)
			s.logger.Info("websocket client disconnected", "subscriber", subID)
			return
		}
	}
	close(replies)
	<-done
	s.logger.Info("websocket client disconnected", "subscriber", subID)
}

func (s *Server) wsSend(conn *websocket.Conn, v any) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v) == nil
}

func (s *Server) wsDispatch(msg wsMessage) any {
	switch msg.Type {
	case "register":
		if msg.DroneID == "" {
			return wsError("drone_id is required")
		}
		res := s.registry.Register(msg.DroneID, msg.Metadata)
		return map[string]any{"type": "register_response", "data": res}

	case "update":
		var req updateRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return wsError("invalid update data")
		}
		state, err := req.toState()
		if err != nil {
			return wsError(err.Error())
		}
		if err := s.registry.UpdateTelemetry(state); err != nil {
			return wsError(err.Error())
		}
		return map[string]any{"type": "update_ack", "drone_id": state.ID}

	case "ping":
		return map[string]any{"type": "pong"}

	default:
		return wsError("unknown message type: " + msg.Type)
	}
}

func wsError(msg string) map[string]any {
	return map[string]any{"type": "error", "error": msg}
}
