package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/articleforge/internal/config"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// CorePublisher publishes with core NATS (fire and forget).
type CorePublisher struct {
	conn *nats.Conn
}

func (p *CorePublisher) Publish(_ context.Context, subject, _ string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return errors.NotifyError("nats publish failed").WithCause(err).WithContext("subject", subject).Build()
	}
	return nil
}

func (p *CorePublisher) Close() error {
	return p.conn.Drain()
}

// JetStreamPublisher publishes into a JetStream stream and waits for the ack.
type JetStreamPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID)); err != nil {
		return errors.NotifyError("jetstream publish failed").WithCause(err).WithContext("subject", subject).Retryable().Build()
	}
	return nil
}

func (p *JetStreamPublisher) Close() error {
	return p.conn.Drain()
}

// Connect dials NATS and returns a publisher for cfg. With a configured
// stream the stream is created or updated to capture prefix.>.
func Connect(ctx context.Context, cfg config.NotifyConfig) (Publisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("articleforge"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").WithCause(err).WithContext("url", cfg.URL).Build()
	}

	if cfg.Stream == "" {
		slog.Info("NATS notifications enabled", "url", cfg.URL, "subject_prefix", cfg.SubjectPrefix)
		return &CorePublisher{conn: conn}, nil
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NotifyError("failed to create JetStream context").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "articleforge run notifications",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		MaxAge:      7 * 24 * time.Hour,
		Duplicates:  2 * time.Minute,
	}); err != nil {
		conn.Close()
		return nil, errors.NotifyError("failed to ensure JetStream stream").WithCause(err).WithContext("stream", cfg.Stream).Build()
	}

	slog.Info("NATS JetStream notifications enabled", "url", cfg.URL, "stream", cfg.Stream, "subject_prefix", cfg.SubjectPrefix)
	return &JetStreamPublisher{conn: conn, js: js}, nil
}
