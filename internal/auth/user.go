package auth

import "time"

// User represents a registered gallery account.
// NOTE: This is the minimal structure required for the credential server;
// there is no profile editing, so records are never updated in place.
type User struct {
	ID           uint64    // Unique immutable identifier, assigned by the store
	Username     string    // Unique username
	Email        string    // Unique email, used as the login key
	PasswordHash string    // bcrypt hashed password (60 chars); plaintext is never stored
	CreatedAt    time.Time // Account creation timestamp (server time)
}

// PublicUser is the projection of a User that may cross the network
// boundary. It never carries the password hash.
type PublicUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the wire-safe projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
