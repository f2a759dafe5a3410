package service

import (
	"context"
	"log"
	"strings"

	"github.com/iliyamo/flight-surety/internal/queue"
)

// Publisher delivers committed settlement events.  Engines ignore its
// errors: the ledger is the source of truth and events are notifications.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// LogPublisher writes events to the process log.  It is used when the
// broker is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev queue.Event) error {
	log.Printf("events: %s", strings.TrimSuffix(queue.JournalLine(ev), "\n"))
	return nil
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev queue.Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev queue.Event) error { return f(ctx, ev) }
