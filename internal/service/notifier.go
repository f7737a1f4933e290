package service

import (
	"context"

	"github.com/iliyamo/hotel-booking/internal/queue"
)

// Notifier dispatches booking lifecycle events.  Implementations must not
// assume the caller acts on a returned error; dispatch is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev queue.BookingEvent) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, queue.BookingEvent) error { return nil }
