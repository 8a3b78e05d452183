package intake

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"banlogger/internal/domain/model"
	"banlogger/internal/domain/ports"
)

const (
	maxEventSize = 64 * 1024
	bearerPrefix = "Bearer "
)

// Publisher is the write side of the host event bus.
type Publisher interface {
	PublishBanned(ctx context.Context, ev model.BannedEvent)
	PublishBanning(ctx context.Context, ev model.BanningEvent)
	PublishKicking(ctx context.Context, ev model.KickingEvent)
}

// Handler lets an out-of-process game server push its punishment events.
type Handler struct {
	mux    *http.ServeMux
	logger ports.Logger
	token  []byte
}

// NewHandler builds the HTTP handler for the event bridge. When token is
// non-empty, event requests must carry it as "Authorization: Bearer <token>".
func NewHandler(bus Publisher, logger ports.Logger, token string) *Handler {
	h := &Handler{mux: http.NewServeMux(), logger: logger, token: []byte(token)}
	h.mux.HandleFunc("POST /events/banned", handle(h, bus.PublishBanned))
	h.mux.HandleFunc("POST /events/banning", handle(h, bus.PublishBanning))
	h.mux.HandleFunc("POST /events/kicking", handle(h, bus.PublishKicking))
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func handle[E any](h *Handler, publish func(context.Context, E)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			h.logger.Warn(r.Context(), "unauthorized host event", "path", r.URL.Path, "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ev, err := decode[E](r)
		if err != nil {
			h.logger.Warn(r.Context(), "rejected host event", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		publish(r.Context(), ev)
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	if len(h.token) == 0 {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	return ok && subtle.ConstantTimeCompare([]byte(got), h.token) == 1
}

func decode[E any](r *http.Request) (E, error) {
	var ev E
	dec := json.NewDecoder(io.LimitReader(r.Body, maxEventSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
