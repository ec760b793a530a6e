package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/game-gallery/internal/logging"
)

// ErrInvalidCredentials is the single login failure: an unknown email and a
// wrong password are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is what a successful Register or Login hands back: a signed
// token plus the public projection of the account it asserts.
type Credentials struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// Service orchestrates register / login / delete-account over a
// UserRepository and a TokenManager. Each operation is a single stateless
// transaction; the service keeps no per-user state between calls.
type Service struct {
	repo   UserRepository
	tokens *TokenManager
}

// NewService wires the service from its two collaborators.
func NewService(repo UserRepository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a new account and logs it in.
//
// The email pre-check is only a fast path: the store's unique indexes are
// the actual guarantee, so a duplicate that slips past the check (two
// registrations racing) still comes back as ErrUserExists from CreateUser.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Credentials, error) {
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("register lookup: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register hash: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("register create: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}

	logging.Info("Account created: id=%d username=%s", user.ID, user.Username)
	return &Credentials{Token: token, User: user.Public()}, nil
}

// Login verifies email+password and issues a token. Its only side effect
// is the token; there is no server-side session table.
func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login token: %w", err)
	}

	logging.Debug("Login: id=%d", user.ID)
	return &Credentials{Token: token, User: user.Public()}, nil
}

// DeleteAccount verifies the token and destroys the account it asserts.
// An invalid or expired token fails with ErrInvalidToken before any
// mutation. Deleting an id that no longer exists succeeds: the observed
// intent is idempotent, and the post-condition holds either way.
func (s *Service) DeleteAccount(ctx context.Context, token string) error {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.repo.DeleteUserByID(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	logging.Info("Account deleted: id=%d", id)
	return nil
}
