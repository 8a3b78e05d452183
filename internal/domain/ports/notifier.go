package ports

import (
	"context"
	"errors"

	"banlogger/internal/domain/model"
)

var (
	// ErrConfiguration is returned when a notifier cannot be built from its configuration.
	ErrConfiguration = errors.New("invalid notifier configuration")
	// ErrRelayClosed is returned by Send after the notifier has been shut down.
	ErrRelayClosed = errors.New("relay is closed")
)

// Notifier delivers notifications to a downstream channel (e.g. Discord).
// Send must not wait for delivery; outcomes are reported out of band.
type Notifier interface {
	Send(ctx context.Context, notification model.Notification) error
	Close(ctx context.Context) error
}
