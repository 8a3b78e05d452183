package usecase

import (
	"context"
	"sync"

	"banlogger/internal/domain/model"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, notification model.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) Close(context.Context) error { return nil }

func (n *recordingNotifier) messages() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.sent...)
}

type stubResolver struct {
	name    string
	release chan struct{}

	mu    sync.Mutex
	calls []string
}

func (r *stubResolver) Resolve(_ context.Context, externalID string) string {
	r.mu.Lock()
	r.calls = append(r.calls, externalID)
	r.mu.Unlock()
	if r.release != nil {
		<-r.release
	}
	return r.name
}

func (r *stubResolver) called() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}

// memorySource is a minimal EventSource for registration tests.
type memorySource struct {
	banned  []func(context.Context, model.BannedEvent)
	banning []func(context.Context, model.BanningEvent)
	kicking []func(context.Context, model.KickingEvent)
}

func (s *memorySource) OnBanned(h func(context.Context, model.BannedEvent)) func() {
	s.banned = append(s.banned, h)
	return func() { s.banned = nil }
}

func (s *memorySource) OnBanning(h func(context.Context, model.BanningEvent)) func() {
	s.banning = append(s.banning, h)
	return func() { s.banning = nil }
}

func (s *memorySource) OnKicking(h func(context.Context, model.KickingEvent)) func() {
	s.kicking = append(s.kicking, h)
	return func() { s.kicking = nil }
}
