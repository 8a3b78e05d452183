package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"banlogger/internal/adapter/discord"
	"banlogger/internal/adapter/hostbus"
	"banlogger/internal/config"
	"banlogger/internal/domain/ports"
	"banlogger/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

// NotifierFactory builds the relay when the feature is enabled.
type NotifierFactory func() (ports.Notifier, error)

type statsReporter interface {
	Stats() discord.Stats
}

// App owns the punishment logger lifecycle: relay, subscriptions, stats job and host bridge.
type App struct {
	cfg         *config.Config
	bus         *hostbus.Bus
	intake      http.Handler
	newNotifier NotifierFactory
	resolver    ports.IdentityResolver
	logger      ports.Logger

	mu         sync.Mutex
	cron       *cron.Cron
	notifier   ports.Notifier
	punishment *usecase.PunishmentLogger
	unregister func()
}

// New constructs an App instance.
func New(cfg *config.Config, bus *hostbus.Bus, intake http.Handler, newNotifier NotifierFactory, resolver ports.IdentityResolver, logger ports.Logger) *App {
	return &App{
		cfg:         cfg,
		bus:         bus,
		intake:      intake,
		newNotifier: newNotifier,
		resolver:    resolver,
		logger:      logger,
	}
}

// Run enables the logger, serves the host bridge and disables everything once ctx is done.
func (a *App) Run(ctx context.Context) error {
	if !a.cfg.Enabled {
		a.logger.Info(ctx, "banlogger is disabled by configuration")
		return nil
	}

	if err := a.Enable(ctx); err != nil {
		a.logger.Error(ctx, "the webhook url is empty or invalid, banlogger will not be loaded", "error", err)
		return nil
	}

	server := &http.Server{
		Addr:              a.cfg.IntakeAddr,
		Handler:           a.intake,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "listening for host events", "addr", a.cfg.IntakeAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("serve host events: %w", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(stopCtx); err != nil {
		a.logger.Error(stopCtx, "host bridge shutdown failed", "error", err)
	}
	a.Disable(stopCtx)
	return runErr
}

// Enable creates the relay and subscribes to host events. It fails with
// ports.ErrConfiguration when the relay cannot be built; nothing is
// subscribed in that case.
func (a *App) Enable(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.notifier != nil {
		return nil
	}

	notifier, err := a.newNotifier()
	if err != nil {
		return err
	}

	formatter := usecase.NewFormatter(a.cfg.WebhookTitle, nil)
	logger := usecase.NewPunishmentLogger(formatter, notifier, a.resolver, a.logger)

	c := cron.New()
	if a.cfg.StatsCron != "" {
		if _, err := c.AddFunc(a.cfg.StatsCron, a.reportStats); err != nil {
			_ = notifier.Close(ctx)
			return fmt.Errorf("schedule relay stats: %w", err)
		}
	}

	a.notifier = notifier
	a.punishment = logger
	a.unregister = logger.Register(a.bus)
	a.cron = c
	a.cron.Start()

	a.logger.Info(ctx, "banlogger enabled", "title", formatter.Title())
	return nil
}

// Disable unsubscribes from host events and shuts the relay down. Pending
// name lookups and in-flight sends get until ctx is done to finish. Calling
// Disable twice is a no-op.
func (a *App) Disable(ctx context.Context) {
	a.mu.Lock()
	notifier, punishment, unregister, c := a.notifier, a.punishment, a.unregister, a.cron
	a.notifier, a.punishment, a.unregister, a.cron = nil, nil, nil, nil
	a.mu.Unlock()

	if notifier == nil {
		return
	}

	unregister()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}

	if err := punishment.Close(ctx); err != nil {
		a.logger.Warn(ctx, "name lookups still pending at shutdown", "error", err)
	}

	a.logStats(notifier)
	if err := notifier.Close(ctx); err != nil {
		a.logger.Warn(ctx, "relay closed with sends still in flight", "error", err)
	}
	a.logger.Info(context.Background(), "banlogger disabled")
}

func (a *App) reportStats() {
	a.mu.Lock()
	notifier := a.notifier
	a.mu.Unlock()

	if notifier != nil {
		a.logStats(notifier)
	}
}

func (a *App) logStats(notifier ports.Notifier) {
	reporter, ok := notifier.(statsReporter)
	if !ok {
		return
	}
	stats := reporter.Stats()
	a.logger.Info(context.Background(), "relay statistics", "sent", stats.Sent, "failed", stats.Failed, "rejected", stats.Rejected)
}
