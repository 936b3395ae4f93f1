package events

import (
	"context"
	"time"
)

const (
	TypeWorkoutSaved   = "workout.saved"
	TypeWorkoutDeleted = "workout.deleted"
	TypeWeightLogged   = "weight.logged"
)

// Event is published after a change has been persisted.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
