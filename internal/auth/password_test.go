package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}

	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_SaltUniqueness(t *testing.T) {
	// Two users with the same password must not share a hash.
	hash1, err := HashPassword("shared-password")
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	hash2, err := HashPassword("shared-password")
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("two hashes of the same plaintext are identical")
	}

	// Both still verify.
	if !CheckPassword(hash1, "shared-password") || !CheckPassword(hash2, "shared-password") {
		t.Error("hash failed to verify its own plaintext")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	malformed := []string{
		"",
		"not-a-bcrypt-hash",
		"$2a$10$tooshort",
	}

	for _, hash := range malformed {
		if CheckPassword(hash, "anything") {
			t.Errorf("malformed hash %q accepted", hash)
		}
	}
}
