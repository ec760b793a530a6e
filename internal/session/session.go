// Package session implements the gallery's client-side session handling:
// a single active session (authenticated or guest), atomic two-slot
// persistence of identity+token, and an HTTP client for the credential
// server that guards protected calls before they reach the network.
package session

// User is the public identity projection the server hands out on
// login/register. It never contains credential material.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session pairs an identity with its token. A guest session is a local
// sentinel: no token, no server-side record, and it is never persisted
// as an authenticated identity.
type Session struct {
	User    User   `json:"user"`
	Token   string `json:"token"`
	IsGuest bool   `json:"isGuest,omitempty"`
}

// NewGuest constructs the guest sentinel. It never touches the server.
func NewGuest() *Session {
	return &Session{
		User:    User{Username: "Guest"},
		IsGuest: true,
	}
}

// Authenticated reports whether this session can back protected calls.
func (s *Session) Authenticated() bool {
	return s != nil && !s.IsGuest && s.Token != ""
}
