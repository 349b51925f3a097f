package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/walkies/internal/adapters/nats"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

// wsMessage is sent from client to narrow which event types it receives.
type wsMessage struct {
	Action string   `json:"action"` // "filter"
	Types  []string `json:"types"`  // event types; empty means all
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// one session's events to the client. The session is picked with the
// "session" query parameter, which the route checks before upgrading.
// Clients may send
// {"action":"filter","types":["map","notice"]} to narrow the stream.
func WebSocketHandler(events *natsadapter.Subscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Query("session")
		remoteAddr := c.RemoteAddr().String()
		logger := slog.With("remote", remoteAddr, "session_id", sessionID)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if sessionID == "" {
			_ = writeJSON(map[string]string{"error": "session query parameter is required"})
			return
		}
		if events == nil {
			_ = writeJSON(map[string]string{"error": "event stream unavailable"})
			return
		}

		var (
			filterMu sync.RWMutex
			allowed  map[string]bool
		)
		unsubscribe, err := events.SubscribeSession(sessionID, func(data []byte) {
			filterMu.RLock()
			f := allowed
			filterMu.RUnlock()
			if f != nil {
				ev, err := natsadapter.DecodeEvent(data)
				if err != nil || !f[ev.Type] {
					return
				}
			}
			_ = writeJSON(json.RawMessage(data))
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}
		defer unsubscribe()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws client connected")

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "filter":
				var next map[string]bool
				if len(m.Types) > 0 {
					next = make(map[string]bool, len(m.Types))
					for _, t := range m.Types {
						next[t] = true
					}
				}
				filterMu.Lock()
				allowed = next
				filterMu.Unlock()
				_ = writeJSON(map[string]interface{}{"status": "filtered", "types": m.Types})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		logger.Info("ws client disconnected")
	}
}
