package salsaauth

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationStatus tracks where a user sits in the activation lifecycle.
type VerificationStatus = string

const (
	// StatusPending means the account exists but the email is unproven
	StatusPending VerificationStatus = "pending"
	// StatusVerified means the activation link was followed successfully
	StatusVerified VerificationStatus = "verified"
)

// CanTransition reports whether moving from one verification status to
// another is allowed. Verification only moves forward; there is no way back
// to pending.
func CanTransition(from, to VerificationStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusVerified
	case StatusVerified:
		return false
	}
	return false
}

// User is the identity record owned by the identity store
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             int64              `bun:"id,pk,autoincrement" json:"id,omitempty"`
	FirstName      string             `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string             `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username       string             `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string             `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string             `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string             `bun:"password_hash" json:"password_hash,omitempty"`
	EmailValidated bool               `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Status         VerificationStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt      *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time         `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the default lifecycle status on new records.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = StatusPending
	}
}

// Fingerprint hashes the mutable state an activation token is bound to.
// Changing any of these fields (credential, lifecycle status, email)
// invalidates every token issued before the change.
func (u *User) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%t|%s",
		u.ID,
		u.PasswordHash,
		u.Status,
		u.EmailValidated,
		strings.ToLower(u.Email),
	)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// GreetingName is the name used in welcome messages, falling back to the
// email address when no first name was collected.
func (u *User) GreetingName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return u.Email
}

// UserZipCode is the auxiliary attribute record collected at signup,
// one-to-one with User and created in the same transaction.
type UserZipCode struct {
	bun.BaseModel `bun:"table:user_zip_codes,alias:uzc"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull,unique" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	ZipCode       string     `bun:"zip_code,notnull" json:"zip_code,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GenerateUsername mints the opaque username assigned at signup. It is random
// rather than derived from the email, so address changes never collide with
// the login key.
func GenerateUsername() string {
	return strings.Split(uuid.NewString(), "-")[0]
}
