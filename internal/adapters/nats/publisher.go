package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/walkies/internal/core/ports"
)

const (
	// StreamName holds recent session events so a reconnecting client can
	// be replayed the last few diffs.
	StreamName = "SESSION_EVENTS"

	// SubjectPrefix is prepended to a session ID to form its event subject.
	SubjectPrefix = "walkies.session."

	streamMaxAge        = 10 * time.Minute
	streamPerSessionMax = 200
	dedupeWindow        = time.Minute
)

// SessionSubject returns the subject carrying events for one session.
func SessionSubject(sessionID string) string {
	return SubjectPrefix + sessionID
}

// Publisher implements ports.EventPublisher on a JetStream stream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and creates or updates the session stream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := sessionStreamConfig()
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func sessionStreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:              StreamName,
		Subjects:          []string{SubjectPrefix + ">"},
		Retention:         nats.LimitsPolicy,
		MaxAge:            streamMaxAge,
		MaxMsgsPerSubject: streamPerSessionMax,
		Duplicates:        dedupeWindow,
		Discard:           nats.DiscardOld,
		Storage:           nats.MemoryStorage,
	}
}

// PublishSessionEvent stamps event with an ID and time when missing and
// publishes it on the session's subject. The ID doubles as the JetStream
// message ID, so a retried publish is stored once.
func (p *Publisher) PublishSessionEvent(ctx context.Context, event *ports.SessionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	_, err = p.js.Publish(SessionSubject(event.SessionID), data,
		nats.Context(ctx),
		nats.MsgId(event.ID),
		nats.ExpectStream(StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Conn exposes the underlying connection so the WebSocket relay can share it.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn opens a NATS connection that keeps retrying in the background.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("walkies"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
}
