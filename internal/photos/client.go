package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Google Photos Library API host
const DefaultBaseURL = "https://photoslibrary.googleapis.com"

// maxErrorBody caps how much of an error response is kept in a StatusError
const maxErrorBody = 64 << 10

// Client performs authenticated Library API requests on behalf of one account
// and refreshes its access token when the API rejects it.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.RWMutex
	creds    Credentials
	listener RefreshListener
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the client used for both media and token requests.
// Timeouts are configured there; the Client itself never imposes one.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the Library API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithLogger sets the logger used for debug-level request and refresh tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the named account
func NewClient(name string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		creds:      creds,
		listener:   NoopListener{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("account", name).Logger()
	return c
}

func (c *Client) Name() string {
	return c.name
}

// Credentials returns a snapshot of the current credentials.
func (c *Client) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// SetCredentials replaces the credentials wholesale.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

// SetRefreshListener installs listener, replacing any previous one. A nil
// listener restores the no-op default.
func (c *Client) SetRefreshListener(listener RefreshListener) {
	if listener == nil {
		listener = NoopListener{}
	}
	c.mu.Lock()
	c.listener = listener
	c.mu.Unlock()
}

func (c *Client) refreshListener() RefreshListener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listener
}

// RefreshCredentials exchanges the refresh token for a new access token.
//
// On success only AccessToken is replaced, and only if the refresh grant the
// token was issued for is still the current one: credentials replaced through
// SetCredentials while the request was in flight are kept as they are. On
// failure the credentials are left untouched and the token endpoint error is
// returned as is. Concurrent calls are not deduplicated; install a
// SerializedListener to queue them.
func (c *Client) RefreshCredentials(ctx context.Context) error {
	listener := c.refreshListener()

	if err := listener.BeforeRefresh(ctx); err != nil {
		return err
	}

	snapshot := c.Credentials()
	c.logger.Debug().Str("token_endpoint", snapshot.TokenEndpoint).Msg("Refreshing access token")

	accessToken, refreshErr := exchangeRefreshToken(ctx, c.httpClient, snapshot)
	if refreshErr == nil {
		c.mu.Lock()
		applied := sameGrant(c.creds, snapshot)
		if applied {
			c.creds.AccessToken = accessToken
		}
		c.mu.Unlock()

		if applied {
			c.logger.Debug().Msg("Access token refreshed")
		} else {
			c.logger.Debug().Msg("Credentials replaced during refresh, discarding new access token")
		}
	}

	listenerErr := listener.AfterRefresh(ctx, refreshErr)
	switch {
	case refreshErr != nil && listenerErr != nil:
		return fmt.Errorf("%w (after refresh listener: %w)", refreshErr, listenerErr)
	case refreshErr != nil:
		return refreshErr
	default:
		return listenerErr
	}
}

// sameGrant reports whether a and b refresh through the same token endpoint,
// client and refresh token.
func sameGrant(a, b Credentials) bool {
	return a.TokenEndpoint == b.TokenEndpoint &&
		a.RefreshToken == b.RefreshToken &&
		a.ClientID == b.ClientID &&
		a.ClientSecret == b.ClientSecret
}

type requestState int

const (
	stateFirstAttempt requestState = iota
	stateRefresh
	stateRetry
)

func (s requestState) String() string {
	switch s {
	case stateFirstAttempt:
		return "first_attempt"
	case stateRefresh:
		return "refresh"
	case stateRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// GetMediaItem fetches a media item by ID.
//
// A 401 on the first attempt triggers one credential refresh followed by one
// retry. Any other failure, and any failure of the retry, is returned
// unchanged. States only move forward, so a call never loops.
func (c *Client) GetMediaItem(ctx context.Context, mediaItemID string) (*MediaItem, error) {
	state := stateFirstAttempt
	for {
		c.logger.Debug().Str("media_item_id", mediaItemID).Stringer("state", state).Msg("Media item request")

		switch state {
		case stateFirstAttempt:
			item, err := c.fetchMediaItem(ctx, mediaItemID)
			if err == nil {
				return item, nil
			}
			if !IsUnauthorized(err) {
				return nil, err
			}
			state = stateRefresh

		case stateRefresh:
			if err := c.RefreshCredentials(ctx); err != nil {
				return nil, err
			}
			state = stateRetry

		case stateRetry:
			return c.fetchMediaItem(ctx, mediaItemID)

		default:
			return nil, fmt.Errorf("invalid request state %d", state)
		}
	}
}

func (c *Client) fetchMediaItem(ctx context.Context, mediaItemID string) (*MediaItem, error) {
	accessToken := c.Credentials().AccessToken
	endpoint := c.baseURL + "/v1/mediaItems/" + url.PathEscape(mediaItemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media item request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var item MediaItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode media item: %w", err)
	}
	return &item, nil
}
