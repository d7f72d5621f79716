// Package events publishes session lifecycle notifications. Publishing is
// best-effort: a failed publish is logged by the caller and never affects
// game state.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeSessionCreated = "session.created"
	TypeSessionRemoved = "session.removed"
	TypeWordIssued     = "word.issued"
	TypeWordAccepted   = "word.accepted"
	TypeWordRejected   = "word.rejected"
	TypeRoundExpired   = "round.expired"
)

type Event struct {
	ID        string         `json:"eventId"`
	Type      string         `json:"eventType"`
	SessionID string         `json:"sessionId"`
	At        time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func New(eventType, sessionID string, at time.Time, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		At:        at,
		Payload:   payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
