/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package feed publishes finished matches to NATS for anything that wants
// to keep score across rooms.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/Seednode/kanarace/games/match"
)

const eventMatchFinished = "MatchFinished"

// Publisher is a match.ResultSink backed by a NATS connection.
type Publisher struct {
	nc      *nats.Conn
	subject string
	log     zerolog.Logger
}

// Connect dials url and publishes under subject, e.g. "kanarace" becomes
// "kanarace.match.finished".
func Connect(url, subject string, log zerolog.Logger) (*Publisher, error) {
	log = log.With().Str("component", "feed").Logger()

	opts := []nats.Option{
		nats.Name("kanarace"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("subject", subject).Msg("match feed connected")

	return &Publisher{nc: nc, subject: subject, log: log}, nil
}

type envelope struct {
	EventID   string       `json:"eventId"`
	EventType string       `json:"eventType"`
	RoomID    string       `json:"roomId"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   match.Result `json:"payload"`
}

func encode(prefix string, id uuid.UUID, now time.Time, result match.Result) (*nats.Msg, error) {
	data, err := json.Marshal(envelope{
		EventID:   id.String(),
		EventType: eventMatchFinished,
		RoomID:    result.RoomID,
		Timestamp: now.UTC(),
		Payload:   result,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return &nats.Msg{
		Subject: fmt.Sprintf("%s.match.finished", prefix),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{eventMatchFinished},
			"Room-ID":    []string{result.RoomID},
			"Event-ID":   []string{id.String()},
		},
	}, nil
}

// Publish sends result and waits for the server to acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, result match.Result) error {
	id := uuid.New()

	msg, err := encode(p.subject, id, time.Now(), result)
	if err != nil {
		return err
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}

	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush NATS: %w", err)
	}

	p.log.Info().
		Str("subject", msg.Subject).
		Str("event_id", id.String()).
		Str("room_id", result.RoomID).
		Msg("published match result")

	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	return p.nc.Drain()
}
