package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"banlogger/internal/domain/model"
	"banlogger/internal/domain/ports"
)

const steamSuffix = "@steam"

// PunishmentLogger translates host punishment events into notifications.
// Name lookups for offline bans run in the background so the host's
// dispatch goroutine never waits on the resolver.
type PunishmentLogger struct {
	formatter Formatter
	notifier  ports.Notifier
	resolver  ports.IdentityResolver
	logger    ports.Logger

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

// NewPunishmentLogger constructs a PunishmentLogger. The resolver may be nil.
func NewPunishmentLogger(formatter Formatter, notifier ports.Notifier, resolver ports.IdentityResolver, logger ports.Logger) *PunishmentLogger {
	return &PunishmentLogger{
		formatter: formatter,
		notifier:  notifier,
		resolver:  resolver,
		logger:    logger,
	}
}

// Register subscribes the logger to every event it handles. The returned
// function removes all subscriptions.
func (p *PunishmentLogger) Register(source ports.EventSource) (unregister func()) {
	unsubs := []func(){
		source.OnBanned(func(ctx context.Context, ev model.BannedEvent) { _ = p.OnBanned(ctx, ev) }),
		source.OnBanning(func(ctx context.Context, ev model.BanningEvent) { _ = p.OnBanning(ctx, ev) }),
		source.OnKicking(func(ctx context.Context, ev model.KickingEvent) { _ = p.OnKicking(ctx, ev) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// OnBanned handles bans the host already applied. Only offline bans keyed by
// user id are reported here; every other ban went through OnBanning first.
func (p *PunishmentLogger) OnBanned(ctx context.Context, ev model.BannedEvent) error {
	if ev.Type != model.BanTypeUserID || ev.Details.OriginalName != model.OfflineBanName {
		return nil
	}

	issuer := ev.Issuer.Identity()
	duration := int64(ev.Details.Expires.Sub(ev.Details.IssuedAt).Seconds())
	if p.resolver == nil || !strings.Contains(ev.Details.ID, steamSuffix) {
		target := model.Identity{Name: ports.UnknownName, ID: ev.Details.ID}
		return p.publish(ctx, issuer, target, ev.Details.Reason, duration)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn(ctx, "dropping offline ban during shutdown", "target", ev.Details.ID)
		return ports.ErrRelayClosed
	}

	p.pending.Add(1)
	go func(ctx context.Context) {
		defer p.pending.Done()
		target := model.Identity{Name: p.resolver.Resolve(ctx, ev.Details.ID), ID: ev.Details.ID}
		_ = p.publish(ctx, issuer, target, ev.Details.Reason, duration)
	}(context.WithoutCancel(ctx))
	return nil
}

// OnBanning handles a ban that is about to be issued.
func (p *PunishmentLogger) OnBanning(ctx context.Context, ev model.BanningEvent) error {
	return p.publish(ctx, ev.Issuer.Identity(), *ev.Target.Identity(), ev.Reason, ev.Duration)
}

// OnKicking handles a kick that is about to be issued.
func (p *PunishmentLogger) OnKicking(ctx context.Context, ev model.KickingEvent) error {
	return p.publish(ctx, ev.Issuer.Identity(), *ev.Target.Identity(), ev.Reason, 0)
}

// Close stops starting new name lookups and waits until the pending ones
// have handed their notification to the notifier, or ctx is done.
// Call it before closing the notifier.
func (p *PunishmentLogger) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PunishmentLogger) publish(ctx context.Context, issuer *model.Identity, target model.Identity, reason string, duration int64) error {
	record, err := model.NewEventRecord(issuer, target, reason, duration)
	if err != nil {
		p.logger.Error(ctx, "dropping punishment event", "error", err)
		return err
	}

	if err := p.notifier.Send(ctx, p.formatter.Format(record)); err != nil {
		p.logger.Error(ctx, "failed to queue ban information", "target", record.Target.ID, "error", err)
		return fmt.Errorf("send punishment notification: %w", err)
	}
	return nil
}
