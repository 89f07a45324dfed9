package salsaauth

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks credential placeholders that can never match a
// password. The prefix is not valid bcrypt output, so comparison fails before
// it even reaches the hasher.
const unusablePrefix = "!"

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// UnusablePassword returns a credential placeholder for invite-only accounts.
// It hashes 32 random bytes whose cleartext is discarded, then prefixes the
// sentinel, so no password can ever verify against it.
func UnusablePassword() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	// MinCost is fine here: the cleartext is discarded, nothing will ever
	// verify against this hash.
	h, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(raw)), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	return unusablePrefix + string(h), nil
}

// IsUsablePassword reports whether the stored hash could ever match a
// password attempt.
func IsUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}
