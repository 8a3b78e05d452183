package hostbus

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"banlogger/internal/domain/model"
	"banlogger/internal/domain/ports"
)

// Bus is an in-memory stand-in for the host's player event system. Handlers
// run on the publishing goroutine in registration order, and a panicking
// handler is logged without stopping the rest.
type Bus struct {
	logger ports.Logger
	seq    atomic.Uint64

	mu      sync.RWMutex
	banned  map[uint64]func(context.Context, model.BannedEvent)
	banning map[uint64]func(context.Context, model.BanningEvent)
	kicking map[uint64]func(context.Context, model.KickingEvent)
}

var _ ports.EventSource = (*Bus)(nil)

// New returns an empty bus.
func New(logger ports.Logger) *Bus {
	return &Bus{
		logger:  logger,
		banned:  map[uint64]func(context.Context, model.BannedEvent){},
		banning: map[uint64]func(context.Context, model.BanningEvent){},
		kicking: map[uint64]func(context.Context, model.KickingEvent){},
	}
}

// OnBanned registers handler for bans the host has applied. The returned
// function unsubscribes it and is safe to call more than once.
func (b *Bus) OnBanned(handler func(context.Context, model.BannedEvent)) func() {
	return subscribe(b, b.banned, handler)
}

// OnBanning registers handler for bans about to be issued.
func (b *Bus) OnBanning(handler func(context.Context, model.BanningEvent)) func() {
	return subscribe(b, b.banning, handler)
}

// OnKicking registers handler for kicks about to be issued.
func (b *Bus) OnKicking(handler func(context.Context, model.KickingEvent)) func() {
	return subscribe(b, b.kicking, handler)
}

// PublishBanned delivers ev to every OnBanned handler before returning.
func (b *Bus) PublishBanned(ctx context.Context, ev model.BannedEvent) {
	publish(ctx, b, b.banned, ev, "banned")
}

// PublishBanning delivers ev to every OnBanning handler before returning.
func (b *Bus) PublishBanning(ctx context.Context, ev model.BanningEvent) {
	publish(ctx, b, b.banning, ev, "banning")
}

// PublishKicking delivers ev to every OnKicking handler before returning.
func (b *Bus) PublishKicking(ctx context.Context, ev model.KickingEvent) {
	publish(ctx, b, b.kicking, ev, "kicking")
}

// Subscribers returns the number of registered handlers across all events.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.banned) + len(b.banning) + len(b.kicking)
}

func subscribe[E any](b *Bus, handlers map[uint64]func(context.Context, E), handler func(context.Context, E)) func() {
	id := b.seq.Add(1)

	b.mu.Lock()
	handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(handlers, id)
			b.mu.Unlock()
		})
	}
}

func publish[E any](ctx context.Context, b *Bus, handlers map[uint64]func(context.Context, E), ev E, kind string) {
	// Snapshot so handlers may unsubscribe while being called.
	b.mu.RLock()
	ids := make([]uint64, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ordered := make([]func(context.Context, E), 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, handlers[id])
	}
	b.mu.RUnlock()

	for _, handler := range ordered {
		b.dispatch(ctx, kind, func() { handler(ctx, ev) })
	}
}

func (b *Bus) dispatch(ctx context.Context, kind string, call func()) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error(ctx, "event handler panicked", "event", kind, "panic", r)
		}
	}()
	call()
}
