package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banlogger/internal/domain/model"
	"banlogger/internal/domain/ports"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}

type warnRecorder struct {
	nopLogger
	mu    sync.Mutex
	warns []string
}

func (l *warnRecorder) Warn(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *warnRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func testNotification() model.Notification {
	return model.Notification{
		Title: "Punishment Logger",
		Fields: []model.NotificationField{
			{Name: "User Punished", Value: "```Cheater (2@steam)```"},
			{Name: "Issuing Staff", Value: "```Admin (1@steam)```"},
			{Name: "Reason", Value: "```aimbot```"},
			{Name: "Ban Duration", Value: "```1d```"},
		},
		Color:     0xD10E11,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestWebhook(t *testing.T, url string, results chan<- Result) *Webhook {
	t.Helper()
	w, err := NewWebhook(Config{
		URL:         url,
		SendTimeout: 5 * time.Second,
		OnComplete:  func(r Result) { results <- r },
	}, nopLogger{})
	require.NoError(t, err)
	return w
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for send completion")
		return Result{}
	}
}

func TestNewWebhook_InvalidConfiguration(t *testing.T) {
	for _, raw := range []string{"", "   ", "://bad", "ftp://example.com/hook", "http://", "not-a-url"} {
		_, err := NewWebhook(Config{URL: raw}, nopLogger{})
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ports.ErrConfiguration), raw)
	}
}

func TestNewWebhook_AcceptsDiscordURL(t *testing.T) {
	_, err := NewWebhook(Config{URL: "https://discord.com/api/webhooks/123/token"}, nopLogger{})
	require.NoError(t, err)
}

func TestWebhook_SendPostsEmbed(t *testing.T) {
	var mu sync.Mutex
	var body []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = data
		mu.Unlock()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	results := make(chan Result, 1)
	w := newTestWebhook(t, srv.URL, results)

	require.NoError(t, w.Send(context.Background(), testNotification()))
	res := waitResult(t, results)
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.ID)

	mu.Lock()
	defer mu.Unlock()
	var params struct {
		Embeds []*discordgo.MessageEmbed `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &params))
	require.Len(t, params.Embeds, 1)

	embed := params.Embeds[0]
	assert.Equal(t, "Punishment Logger", embed.Title)
	assert.Equal(t, 0xD10E11, embed.Color)
	assert.Equal(t, "2024-05-01T10:00:00Z", embed.Timestamp)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "User Punished", embed.Fields[0].Name)
	assert.Equal(t, "Ban Duration", embed.Fields[3].Name)
	assert.False(t, embed.Fields[0].Inline)

	assert.Equal(t, Stats{Sent: 1}, w.Stats())
}

func TestWebhook_SendDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	defer close(release)

	results := make(chan Result, 1)
	w := newTestWebhook(t, srv.URL, results)

	returned := make(chan error, 1)
	go func() { returned <- w.Send(context.Background(), testNotification()) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Send blocked on the network call")
	}

	select {
	case <-results:
		t.Fatal("send completed before the server responded")
	default:
	}
}

func TestWebhook_FailureIsReportedNotReturned(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	results := make(chan Result, 1)
	w := newTestWebhook(t, srv.URL, results)

	require.NoError(t, w.Send(context.Background(), testNotification()))
	res := waitResult(t, results)
	assert.False(t, res.OK)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "status 400")

	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, int32(1), attempts.Load(), "failed sends are not retried")
	assert.Equal(t, Stats{Failed: 1}, w.Stats())
}

func TestWebhook_DefaultHandlerLogsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := &warnRecorder{}
	w, err := NewWebhook(Config{URL: srv.URL}, logger)
	require.NoError(t, err)

	require.NoError(t, w.Send(context.Background(), testNotification()))
	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, 1, logger.count())
}

func TestWebhook_SendAfterClose(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newTestWebhook(t, srv.URL, make(chan Result, 1))
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))

	err := w.Send(context.Background(), testNotification())
	assert.True(t, errors.Is(err, ports.ErrRelayClosed))
	assert.Equal(t, int32(0), attempts.Load())
	assert.Equal(t, uint64(1), w.Stats().Rejected)
}

func TestWebhook_CloseWaitsForInflight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	results := make(chan Result, 1)
	w := newTestWebhook(t, srv.URL, results)
	require.NoError(t, w.Send(context.Background(), testNotification()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Close(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(release)
	res := waitResult(t, results)
	assert.True(t, res.OK)
	require.NoError(t, w.Close(context.Background()))
}

func TestWebhook_SendOutlivesCallerContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	results := make(chan Result, 1)
	w := newTestWebhook(t, srv.URL, results)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Send(ctx, testNotification()))
	cancel()

	assert.True(t, waitResult(t, results).OK)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://discord.com", redactURL("https://discord.com/api/webhooks/1/secret"))
	assert.Equal(t, "<invalid-url>", redactURL("://bad"))
}

func TestTruncate_CountsRunes(t *testing.T) {
	cjk := strings.Repeat("禁", 400)
	fenced := "```" + cjk + "```"

	tests := []struct {
		name  string
		value string
		limit int
		want  string
	}{
		{"short ascii", "aimbot", 1024, "aimbot"},
		{"multibyte under limit is untouched", fenced, 1024, fenced},
		{"multibyte over limit", strings.Repeat("禁", 300), 256, strings.Repeat("禁", 253) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.value, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.limit)
		})
	}
}

func TestBuildParams_MultibyteReasonSurvives(t *testing.T) {
	n := testNotification()
	reason := "```" + strings.Repeat("禁", 400) + "```"
	n.Fields[2].Value = reason

	params := buildParams(n)
	assert.Equal(t, reason, params.Embeds[0].Fields[2].Value)
}

func TestWebhook_ConcurrentSendAndClose(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	const senders = 100
	var completed atomic.Int32
	w, err := NewWebhook(Config{
		URL:         srv.URL,
		SendTimeout: 5 * time.Second,
		OnComplete:  func(Result) { completed.Add(1) },
	}, nopLogger{})
	require.NoError(t, err)

	var accepted, rejected atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := w.Send(context.Background(), testNotification())
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ports.ErrRelayClosed):
				rejected.Add(1)
			default:
				t.Errorf("unexpected send error: %v", err)
			}
		}()
	}

	closed := make(chan error, 1)
	go func() {
		<-start
		closed <- w.Close(context.Background())
	}()

	close(start)
	wg.Wait()
	require.NoError(t, <-closed)

	assert.Equal(t, int32(senders), accepted.Load()+rejected.Load())
	assert.Equal(t, accepted.Load(), completed.Load(), "every accepted send finishes before Close returns")
	assert.Equal(t, accepted.Load(), hits.Load(), "rejected sends never reach the network")
	assert.Equal(t, uint64(rejected.Load()), w.Stats().Rejected)
}
