package service

import (
	"context"

	"docmind-be/pkg/events"
)

// EventPublisher pushes conversation outcomes onto the notification
// bus. Publishing is fire-and-forget: a bus failure is logged and
// never fails the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
