package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"golang.org/x/net/idna"

	"banlogger/internal/domain/model"
	"banlogger/internal/domain/ports"
)

const (
	defaultSendTimeout = 10 * time.Second
	userAgent          = "banlogger/1.0"
)

// Result reports the outcome of one background send.
type Result struct {
	ID  string
	OK  bool
	Err error
}

// Stats counts send outcomes since the webhook was created.
type Stats struct {
	Sent     uint64
	Failed   uint64
	Rejected uint64
}

// Config configures a Webhook.
type Config struct {
	URL         string
	SendTimeout time.Duration
	// OnComplete is called from the sending goroutine once a send finishes.
	// It defaults to logging a warning on failure.
	OnComplete func(Result)
}

// Webhook is a Discord webhook notifier that delivers in the background.
type Webhook struct {
	webhookURL  string
	httpClient  *http.Client
	logger      ports.Logger
	sendTimeout time.Duration
	onComplete  func(Result)

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	sent     atomic.Uint64
	failed   atomic.Uint64
	rejected atomic.Uint64
}

var _ ports.Notifier = (*Webhook)(nil)

// NewWebhook creates a Discord webhook notifier. It fails with
// ports.ErrConfiguration when the URL is missing or malformed.
func NewWebhook(cfg Config, logger ports.Logger) (*Webhook, error) {
	if err := validateURL(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfiguration, err)
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	w := &Webhook{
		webhookURL:  cfg.URL,
		httpClient:  &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		logger:      logger,
		sendTimeout: timeout,
		onComplete:  cfg.OnComplete,
	}
	if w.onComplete == nil {
		w.onComplete = w.logResult
	}
	return w, nil
}

// Send queues the notification for delivery and returns without waiting for
// the network. After Close it returns ports.ErrRelayClosed.
func (w *Webhook) Send(ctx context.Context, notification model.Notification) error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		w.rejected.Add(1)
		return ports.ErrRelayClosed
	}
	w.inflight.Add(1)
	w.mu.RUnlock()

	body, err := json.Marshal(buildParams(notification))
	if err != nil {
		w.inflight.Done()
		return fmt.Errorf("marshal payload: %w", err)
	}

	id := uuid.NewString()
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.sendTimeout)
	go func() {
		defer w.inflight.Done()
		defer cancel()

		err := w.post(sendCtx, body)
		if err != nil {
			w.failed.Add(1)
		} else {
			w.sent.Add(1)
		}
		w.complete(Result{ID: id, OK: err == nil, Err: err})
	}()
	return nil
}

// Close stops accepting sends and waits for in-flight sends until ctx is done.
// It is safe to call more than once.
func (w *Webhook) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.inflight.Wait()
		close(done)
	}()

	defer w.httpClient.CloseIdleConnections()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight sends: %w", ctx.Err())
	}
}

// Stats returns a snapshot of the send counters.
func (w *Webhook) Stats() Stats {
	return Stats{
		Sent:     w.sent.Load(),
		Failed:   w.failed.Load(),
		Rejected: w.rejected.Load(),
	}
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) complete(res Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(context.Background(), "send completion handler panicked", "id", res.ID, "panic", r)
		}
	}()
	w.onComplete(res)
}

func (w *Webhook) logResult(res Result) {
	ctx := context.Background()
	if !res.OK {
		w.logger.Warn(ctx, "failed to send ban information", "id", res.ID, "endpoint", redactURL(w.webhookURL), "error", res.Err)
		return
	}
	w.logger.Info(ctx, "ban information sent to discord", "id", res.ID)
}

func buildParams(notification model.Notification) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:     truncate(notification.Title, 256),
				Fields:    convertFields(notification.Fields),
				Color:     int(notification.Color),
				Timestamp: notification.Timestamp.UTC().Format(time.RFC3339),
			},
		},
	}
}

func convertFields(fields []model.NotificationField) []*discordgo.MessageEmbedField {
	if len(fields) == 0 {
		return nil
	}

	result := make([]*discordgo.MessageEmbedField, 0, len(fields))
	for _, field := range fields {
		result = append(result, &discordgo.MessageEmbedField{
			Name:   truncate(field.Name, 256),
			Value:  truncate(field.Value, 1024),
			Inline: field.Inline,
		})
	}

	return result
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("webhook URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https scheme, got %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("webhook URL must include a host")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("invalid webhook host %q: %w", host, err)
	}
	return nil
}

// redactURL keeps only the scheme and host; webhook paths carry the token.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}
	return u.Scheme + "://" + u.Host
}

// truncate shortens value to at most limit runes; Discord counts characters, not bytes.
func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
