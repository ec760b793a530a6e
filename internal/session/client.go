package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/game-gallery/internal/logging"
)

// TokenHeader must match the server's middleware.
const TokenHeader = "x-auth-token"

var (
	// ErrNoSession — a protected call was attempted with no token held.
	// The guard fires before any network traffic.
	ErrNoSession = errors.New("no active session")

	// ErrGuestSession — the operation needs a server-backed account but
	// the current session is the guest sentinel.
	ErrGuestSession = errors.New("guest session has no server account")

	// ErrSessionExpired — the server answered 401 on a protected call.
	// The client has already dropped the session when this is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionReplaced — the session was switched while the request was
	// in flight, so the server's answer was discarded without effect.
	ErrSessionReplaced = errors.New("session replaced during request")
)

// APIError carries the server's {msg} body for a failed request.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Msg)
}

// Client holds at most one active session and talks to the credential
// server. Switching sessions (login/register/guest/logout) replaces the
// previous state wholesale; nothing is merged. A failed operation leaves
// the prior session untouched.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store // nil disables persistence

	mu      sync.Mutex
	current *Session
	gen     uint64 // bumped on every session switch; stale responses are discarded
}

// NewClient builds a session client against baseURL (e.g. http://localhost:3001).
// A nil store keeps the session in memory only.
func NewClient(baseURL string, store *Store) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
}

// Hydrate restores a persisted session at startup, if any.
func (c *Client) Hydrate() error {
	if c.store == nil {
		return nil
	}
	s, err := c.store.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return nil
}

// Current returns a copy of the active session, or nil when logged out.
func (c *Client) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

type credentialsResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and activates the returned session.
// Returns ErrSessionReplaced if the session was switched while the
// request was in flight; the response is discarded in that case.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.authenticate(ctx, "/api/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// Login authenticates and activates the returned session.
// Returns ErrSessionReplaced if the session was switched while the
// request was in flight; the response is discarded in that case.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// authenticate posts credentials and, on success, swaps in the new
// session. If the session was switched while the request was in flight,
// the result is discarded: it belongs to a conversation that no longer
// exists.
func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	var creds credentialsResponse
	if err := c.postJSON(ctx, path, body, &creds); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		logging.Debug("Discarding stale auth response for %s", path)
		return ErrSessionReplaced
	}

	c.gen++
	c.current = &Session{User: creds.User, Token: creds.Token}
	return c.persistLocked()
}

// LoginAsGuest activates the guest sentinel. Purely local.
func (c *Client) LoginAsGuest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = NewGuest()
	_ = c.persistLocked()
}

// Logout clears the session, both in memory and on disk.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = nil
	return c.persistLocked()
}

// DeleteAccount destroys the server-side account behind the current
// session. Guests are rejected before any network call (there is nothing
// to delete), as is a logged-out client. On success the session is
// cleared; on 401 the session is dropped too, since the server no longer
// honours it. Any other failure leaves the session authenticated. If the
// session was switched while the request was in flight, the newer session
// is left untouched.
func (c *Client) DeleteAccount(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	gen := c.gen
	c.mu.Unlock()

	if current == nil {
		return ErrNoSession
	}
	if current.IsGuest {
		return ErrGuestSession
	}
	if current.Token == "" {
		return ErrNoSession
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/users/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set(TokenHeader, current.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		c.dropSession(gen)
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		// The token is no longer honoured; holding on to the session
		// would just repeat this failure on every protected call.
		c.dropSession(gen)
		return ErrSessionExpired
	default:
		return readAPIError(resp)
	}
}

// dropSession clears the session unless it was already replaced while
// the triggering request was in flight.
func (c *Client) dropSession(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.gen++
	c.current = nil
	_ = c.persistLocked()
}

// persistLocked mirrors the in-memory session to the store. Caller holds mu.
func (c *Client) persistLocked() error {
	if c.store == nil {
		return nil
	}
	if c.current == nil {
		return c.store.Clear()
	}
	return c.store.Save(c.current)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// readAPIError decodes the server's {msg} body into an APIError.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Msg: "request failed"}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var body struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(data, &body) == nil && body.Msg != "" {
			apiErr.Msg = body.Msg
		}
	}
	return apiErr
}
