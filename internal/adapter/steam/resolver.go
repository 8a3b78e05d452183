package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"banlogger/internal/domain/ports"
)

const (
	// DefaultBaseURL is the public Steam Web API.
	DefaultBaseURL = "https://api.steampowered.com"

	summariesPath = "/ISteamUser/GetPlayerSummaries/v0002/"
	idSuffix      = "@steam"
	maxBodySize   = 64 * 1024
)

var personaNamePattern = regexp.MustCompile(`"personaname":"(.+?)"`)

// Resolver implements ports.IdentityResolver against the Steam Web API.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     ports.Logger
}

var _ ports.IdentityResolver = (*Resolver)(nil)

// NewResolver creates a Steam resolver. An empty or all-zero key disables lookups.
func NewResolver(apiKey, baseURL string, timeout time.Duration, logger ports.Logger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Enabled reports whether a usable API key is configured.
func (r *Resolver) Enabled() bool {
	return strings.Trim(r.apiKey, "0") != ""
}

// Resolve returns the Steam persona name for a "<steamid>@steam" id, or
// ports.UnknownName when the id is not a Steam id or the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, externalID string) string {
	if !r.Enabled() || !strings.HasSuffix(externalID, idSuffix) {
		return ports.UnknownName
	}

	name, err := r.lookup(ctx, strings.TrimSuffix(externalID, idSuffix))
	if err != nil {
		r.logger.Error(ctx, "an error has occurred while contacting steam servers", "id", externalID, "error", err)
		return ports.UnknownName
	}
	return name
}

func (r *Resolver) lookup(ctx context.Context, steamID string) (string, error) {
	query := url.Values{}
	query.Set("key", r.apiKey)
	query.Set("steamids", steamID)
	endpoint := r.baseURL + summariesPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	match := personaNamePattern.FindSubmatch(data)
	if match == nil {
		return "", fmt.Errorf("personaname not found in response")
	}
	return string(match[1]), nil
}
