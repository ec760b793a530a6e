package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryUserRepo is a threadsafe in-memory storage useful for tests &
// single-instance servers. NOT suitable for production without persistence.
// It also handles incremental ID assignment. ID counter starts from 1.
type MemoryUserRepo struct {
	mu         sync.RWMutex
	byEmail    map[string]*User // key = lowercase(email)
	byUsername map[string]*User // key = lowercase(username)
	nextID     uint64
}

// NewMemoryUserRepo returns an empty repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byEmail:    make(map[string]*User),
		byUsername: make(map[string]*User),
		nextID:     1,
	}
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (r *MemoryUserRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	key := normalize(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (r *MemoryUserRepo) GetUserByID(_ context.Context, id uint64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// CreateUser inserts a new user if neither username nor email is present.
// Both maps are checked and written under one lock, so two racing creates
// with the same email yield exactly one success.
func (r *MemoryUserRepo) CreateUser(_ context.Context, username, email, passwordHash string) (*User, error) {
	emailKey := normalize(email)
	usernameKey := normalize(username)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[emailKey]; exists {
		return nil, ErrUserExists
	}
	if _, exists := r.byUsername[usernameKey]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byEmail[emailKey] = user
	r.byUsername[usernameKey] = user
	return user, nil
}

// DeleteUserByID removes the user. Absent ids succeed (nothing to remove).
func (r *MemoryUserRepo) DeleteUserByID(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, user := range r.byEmail {
		if user.ID == id {
			delete(r.byEmail, key)
			delete(r.byUsername, normalize(user.Username))
			return nil
		}
	}
	return nil
}

// Helper to normalise lookup keys.
func normalize(s string) string {
	return strings.ToLower(s)
}
