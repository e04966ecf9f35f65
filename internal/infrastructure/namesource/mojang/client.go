// Package mojang implements the name source ports against the Mojang profile API.
package mojang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/infrastructure/config"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client fetches name histories and resolves names to identities.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cache   *lookupCache
}

var (
	_ ports.ChangeSource     = (*Client)(nil)
	_ ports.IdentityResolver = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Redirects are still not followed.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithClock replaces time.Now for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		client.cache.now = now
	}
}

// NewClient creates a client from the lookup configuration.
func NewClient(cfg config.LookupsConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout(),
		http:    &http.Client{},
		cache:   newLookupCache(cfg.CacheTTL()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// FetchNameChanges returns the identity's name history, oldest first.
// An identity unknown to the service yields no changes.
func (c *Client) FetchNameChanges(ctx context.Context, identity uuid.UUID) ([]entities.NameChange, error) {
	endpoint := fmt.Sprintf("%s/user/profiles/%s/names", c.baseURL, identity)

	resp, cancel, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var changes []entities.NameChange
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&changes); err != nil {
			return nil, fmt.Errorf("%w: decoding name history: %w", ports.ErrSource, err)
		}
		if changes == nil {
			changes = []entities.NameChange{}
		}
		return changes, nil
	case http.StatusNoContent:
		return []entities.NameChange{}, nil
	default:
		return nil, fmt.Errorf("%w: HTTP %d", ports.ErrSource, resp.StatusCode)
	}
}

type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LookupIdentity returns the identity currently using name. Answers,
// including "nobody", are cached; transport failures are not.
func (c *Client) LookupIdentity(ctx context.Context, name string) (uuid.UUID, bool, error) {
	if id, ok, hit := c.cache.get(name); hit {
		return id, ok, nil
	}

	endpoint := fmt.Sprintf("%s/users/profiles/minecraft/%s", c.baseURL, url.PathEscape(name))
	resp, cancel, err := c.get(ctx, endpoint)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer cancel()
	defer resp.Body.Close()

	id, ok := uuid.Nil, false
	if resp.StatusCode == http.StatusOK {
		var p profile
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&p); err == nil {
			if parsed, err := uuid.Parse(p.ID); err == nil {
				id, ok = parsed, true
			}
		}
	}

	c.cache.put(name, id, ok)
	return id, ok, nil
}

// get issues a GET bounded by the client timeout. The caller must call
// cancel after it has finished reading the body.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: creating request: %w", ports.ErrSource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: request failed: %w", ports.ErrSource, err)
	}
	return resp, cancel, nil
}
