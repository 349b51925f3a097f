package natsadapter

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/walkies/internal/core/ports"
)

// Subscriber delivers session events to in-process listeners such as the
// WebSocket relay. Subscriptions are plain core NATS and last as long as
// the listener.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeSession calls handler with the raw JSON of every event for
// sessionID. The returned func unsubscribes.
func (s *Subscriber) SubscribeSession(sessionID string, handler func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(SessionSubject(sessionID), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", sessionID, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// DecodeEvent parses a relayed message.
func DecodeEvent(data []byte) (*ports.SessionEvent, error) {
	var ev ports.SessionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Connected reports whether the connection is up.
func (s *Subscriber) Connected() bool {
	return s.conn != nil && s.conn.IsConnected()
}
