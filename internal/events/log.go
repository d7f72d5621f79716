package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to a zerolog logger at debug level.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	p.logger.Debug().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("session_id", ev.SessionID).
		Fields(ev.Payload).
		Msg("session event")
	return nil
}
