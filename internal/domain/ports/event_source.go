package ports

import (
	"context"

	"banlogger/internal/domain/model"
)

// EventSource is the slice of the host's event system the logger subscribes to.
// Each On* call returns a function that removes the handler again.
type EventSource interface {
	OnBanned(handler func(ctx context.Context, ev model.BannedEvent)) (unsubscribe func())
	OnBanning(handler func(ctx context.Context, ev model.BanningEvent)) (unsubscribe func())
	OnKicking(handler func(ctx context.Context, ev model.KickingEvent)) (unsubscribe func())
}
