package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/annel0/game-gallery/internal/cache"
	"github.com/annel0/game-gallery/internal/logging"
)

// Fixed content filters the gallery always applies to list queries:
// rated games only, sexual-content tags excluded.
const (
	allowedESRB  = "1,2,3,4"
	excludedTags = "210,211"
)

// ErrUnavailable is returned when the upstream catalog cannot be reached
// or answers with a non-2xx status. Callers map it to 502.
var ErrUnavailable = errors.New("catalog unavailable")

// DefaultPageSize matches the gallery's page length.
const DefaultPageSize = 20

// Client talks to the third-party games catalog (RAWG-compatible API).
// The API key is appended server-side on every request so it never ships
// to browsers. Successful responses are cached read-through when a cache
// is attached; keys are the upstream path+query without the key.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	cache    cache.CacheRepo // nil disables caching
	cacheTTL time.Duration
	log      *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache attaches a read-through cache with the given TTL.
func WithCache(repo cache.CacheRepo, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = repo
		c.cacheTTL = ttl
	}
}

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a catalog client for the given base URL and key.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 60 * time.Second,
		log:      logging.GetComponentLogger("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Games lists catalog entries with the gallery's filters applied.
func (c *Client) Games(ctx context.Context, q GamesQuery) (*Page[Game], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 40 {
		q.PageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("esrb_rating", allowedESRB)
	params.Set("exclude_tags", excludedTags)
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Genres != "" {
		params.Set("genres", q.Genres)
	}
	if q.Platforms != "" {
		params.Set("platforms", q.Platforms)
	}
	if q.Ordering != "" {
		params.Set("ordering", q.Ordering)
	}

	var page Page[Game]
	if err := c.getJSON(ctx, "/games", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Game fetches full details for one catalog entry.
func (c *Client) Game(ctx context.Context, id int) (*Game, error) {
	var game Game
	if err := c.getJSON(ctx, fmt.Sprintf("/games/%d", id), nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// GameStores fetches the store links for one catalog entry.
func (c *Client) GameStores(ctx context.Context, id int) (*Page[GameStore], error) {
	var page Page[GameStore]
	if err := c.getJSON(ctx, fmt.Sprintf("/games/%d/stores", id), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Genres lists the filterable genres.
func (c *Client) Genres(ctx context.Context) (*Page[Genre], error) {
	var page Page[Genre]
	if err := c.getJSON(ctx, "/genres", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Platforms lists the parent platform families.
func (c *Client) Platforms(ctx context.Context) (*Page[Platform], error) {
	var page Page[Platform]
	if err := c.getJSON(ctx, "/platforms/lists/parents", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// getJSON fetches path+params from the catalog and decodes into out,
// consulting the cache first. The cache key deliberately excludes the
// API key.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := "catalog:" + path + "?" + params.Encode()

	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			// Corrupt entry: evict it and fall through to the upstream.
			c.log.Warn("Evicting undecodable cache entry %s", cacheKey)
			_ = c.cache.Delete(ctx, cacheKey)
		}
	}

	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("Catalog request failed: %s: %v", path, err)
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Catalog returned %d for %s", resp.StatusCode, path)
		return ErrUnavailable
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ErrUnavailable
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, data, c.cacheTTL); err != nil {
			c.log.Warn("Cache store failed for %s: %v", cacheKey, err)
		}
	}

	return json.Unmarshal(data, out)
}
