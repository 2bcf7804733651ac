// Package rocketchat implements the HTTP calls made against a chat server
// before login.
package rocketchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charlesng35/chatgate/internal/descriptor"
	"github.com/charlesng35/chatgate/internal/settings"
	apperrors "github.com/charlesng35/chatgate/pkg/errors"
	"github.com/charlesng35/chatgate/pkg/validator"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "chatgate"
	maxBodySize      = 4 << 20 // 4 MiB

	infoPath           = "/api/info"
	settingsOAuthPath  = "/api/v1/settings.oauth"
	settingsPublicPath = "/api/v1/settings.public"
)

// ServerInfo is the answer of the server info endpoint.
type ServerInfo struct {
	Version      string `json:"version"`
	Redirected   bool   `json:"redirected"`
	CanonicalURL string `json:"canonical_url"`
}

// OAuthSettings lists the OAuth services the server advertises.
type OAuthSettings struct {
	Services []descriptor.Descriptor `json:"services"`
}

// Options tune the HTTP client.
type Options struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	HTTPClient *http.Client  `mapstructure:"-"`
}

// Client talks to one chat server.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// New creates a client for serverURL.
func New(serverURL string, opts Options) (*Client, error) {
	base, err := validator.NormalizeServerURL(serverURL)
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{BaseURL: base, UserAgent: ua, HTTP: httpClient}, nil
}

// ServerInfo fetches the server version. Redirects are followed and reported
// through Redirected and CanonicalURL.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	body, finalURL, err := c.get(ctx, c.BaseURL+infoPath)
	if err != nil {
		return ServerInfo{}, err
	}

	var payload struct {
		Version string `json:"version"`
		Info    struct {
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ServerInfo{}, invalidProtocol(infoPath, err)
	}

	version := payload.Version
	if version == "" {
		version = payload.Info.Version
	}
	if strings.TrimSpace(version) == "" {
		return ServerInfo{}, invalidProtocol(infoPath, errors.New("missing version"))
	}

	info := ServerInfo{Version: version, CanonicalURL: c.BaseURL}
	base, err := url.Parse(c.BaseURL)
	if err != nil || finalURL == nil || sameOrigin(finalURL, base) {
		return info, nil
	}
	info.Redirected = true
	info.CanonicalURL = canonicalBase(finalURL, base.Path)
	return info, nil
}

// SettingsOAuth fetches the OAuth service list.
func (c *Client) SettingsOAuth(ctx context.Context) (OAuthSettings, error) {
	body, _, err := c.get(ctx, c.BaseURL+settingsOAuthPath)
	if err != nil {
		return OAuthSettings{}, err
	}

	var payload struct {
		Services json.RawMessage `json:"services"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return OAuthSettings{}, invalidProtocol(settingsOAuthPath, err)
	}
	if len(payload.Services) == 0 || string(payload.Services) == "null" {
		return OAuthSettings{}, nil
	}

	services, err := descriptor.DecodeList(payload.Services)
	if err != nil {
		return OAuthSettings{}, invalidProtocol(settingsOAuthPath, err)
	}
	return OAuthSettings{Services: services}, nil
}

// PublicSettings fetches the named public settings.
func (c *Client) PublicSettings(ctx context.Context, keys []string) (settings.Snapshot, error) {
	query, err := json.Marshal(map[string]any{"_id": map[string]any{"$in": keys}})
	if err != nil {
		return settings.Snapshot{}, fmt.Errorf("rocketchat: encode settings query: %w", err)
	}
	endpoint := c.BaseURL + settingsPublicPath + "?" + url.Values{"query": {string(query)}}.Encode()

	body, _, err := c.get(ctx, endpoint)
	if err != nil {
		return settings.Snapshot{}, err
	}

	var payload struct {
		Settings []struct {
			ID    string `json:"_id"`
			Value any    `json:"value"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return settings.Snapshot{}, invalidProtocol(settingsPublicPath, err)
	}

	values := make(map[string]any, len(payload.Settings))
	for _, s := range payload.Settings {
		if s.ID != "" {
			values[s.ID] = s.Value
		}
	}
	return settings.NewSnapshot(values), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("rocketchat: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, apperrors.ErrTransientNetwork.WithInternal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, apperrors.ErrTransientNetwork.WithInternal(err)
	}

	if err := classifyStatus(endpoint, resp.StatusCode); err != nil {
		return nil, nil, err
	}
	return body, resp.Request.URL, nil
}

func classifyStatus(endpoint string, status int) error {
	cause := fmt.Errorf("GET %s: %d %s", endpoint, status, http.StatusText(status))
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests, status >= 500:
		return apperrors.ErrTransientNetwork.WithInternal(cause)
	case status == http.StatusNotFound:
		return apperrors.ErrInvalidProtocol.WithInternal(cause)
	default:
		return apperrors.ErrServerRejected.WithInternal(cause)
	}
}

func invalidProtocol(path string, err error) error {
	return apperrors.ErrInvalidProtocol.WithInternal(fmt.Errorf("%s: %w", path, err))
}

// canonicalBase is the origin of final plus the path that precedes the info
// endpoint, or basePath when the endpoint is no longer in the final path.
func canonicalBase(final *url.URL, basePath string) string {
	prefix := basePath
	if i := strings.LastIndex(final.Path, infoPath); i >= 0 {
		prefix = final.Path[:i]
	}
	u := url.URL{Scheme: final.Scheme, Host: final.Host, Path: strings.TrimRight(prefix, "/")}
	return u.String()
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}
