package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"CoverPool/internal/engine"
)

// Connect dials NATS with unlimited reconnects and opens a JetStream
// context.
func Connect(url string, logger zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return nc, js, nil
}

// Publisher forwards engine events to NATS JetStream for downstream
// consumers. It drains the publish channel, which the engine writes with
// non-blocking sends: a slow or down broker drops events here rather
// than stalling settlement, and consumers can rebuild from the Postgres
// event log.
//
// Subjects follow cover.pool.events.{event_type}, with the holder account
// appended when the event has one.
type Publisher struct {
	js     jetstream.JetStream
	input  <-chan engine.Output
	logger zerolog.Logger
}

// wireEvent is the published JSON shape.
type wireEvent struct {
	Sequence   int64       `json:"sequence"`
	EventType  string      `json:"event_type"`
	Account    *string     `json:"account,omitempty"`
	Payload    interface{} `json:"payload"`
	OccurredAt int64       `json:"occurred_at"`
}

func NewPublisher(js jetstream.JetStream, input <-chan engine.Output, logger zerolog.Logger) *Publisher {
	return &Publisher{
		js:     js,
		input:  input,
		logger: logger.With().Str("component", "publisher").Logger(),
	}
}

// Run drains the publish channel until ctx is cancelled or the channel
// closes. Publish failures are logged and skipped.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.input:
			if !ok {
				return nil
			}
			if err := p.publish(ctx, out); err != nil {
				p.logger.Warn().
					Err(err).
					Int64("sequence", out.Envelope.Sequence).
					Msg("outbound publish failed")
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, out engine.Output) error {
	evt := wireEvent{
		Sequence:   out.Envelope.Sequence,
		EventType:  out.Envelope.Type.String(),
		Payload:    out.Envelope.Payload,
		OccurredAt: out.Envelope.Timestamp,
	}
	if out.Envelope.Account != nil {
		s := out.Envelope.Account.String()
		evt.Account = &s
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("cover.pool.events.%s", evt.EventType)
	if evt.Account != nil {
		subject = fmt.Sprintf("%s.%s", subject, *evt.Account)
	}

	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates or updates the outbound events stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "COVER_POOL_EVENTS",
		Subjects:  []string{"cover.pool.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	return nil
}
