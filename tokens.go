package salsaauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// keySalt namespaces the derived HMAC key so the signing secret can be
	// shared with other subsystems without cross-protocol token reuse.
	keySalt = "salsaauth.activation"

	// DefaultTokenExpiryDays is the verification window, day granularity.
	// Links are emailed once and checked without storage, so the bucket has
	// to be coarse enough to survive a slow inbox.
	DefaultTokenExpiryDays = 3
)

// EncodeUID renders a numeric user id as a URL-safe token for activation
// links.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID is the inverse of EncodeUID. Any input that does not round-trip
// to a non-negative id fails with ErrMalformedToken.
func DecodeUID(s string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryValidation, "uid token is not valid base64").
			WithTextCode(textCodeMalformedToken).
			WithCode(goerrors.CodeBadRequest)
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, ErrMalformedToken
	}

	return id, nil
}

// ActivationTokens derives and checks one-time activation tokens. Tokens are
// a function of (user id, state fingerprint, day bucket, secret); nothing is
// persisted, verification is recomputation.
type ActivationTokens struct {
	secret     []byte
	expiryDays int
	now        func() time.Time
}

type ActivationTokensOption func(*ActivationTokens)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) ActivationTokensOption {
	return func(a *ActivationTokens) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithTokenExpiryDays overrides the verification window.
func WithTokenExpiryDays(days int) ActivationTokensOption {
	return func(a *ActivationTokens) {
		if days > 0 {
			a.expiryDays = days
		}
	}
}

func NewActivationTokens(secret string, opts ...ActivationTokensOption) *ActivationTokens {
	a := &ActivationTokens{
		secret:     deriveKey(secret),
		expiryDays: DefaultTokenExpiryDays,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Make returns the activation token for the user's current state. Two calls
// for the same unchanged user within the same day bucket yield the same
// token.
func (a *ActivationTokens) Make(u *User) string {
	return a.makeAt(u, a.dayBucket())
}

// Check recomputes the expected token for every day bucket inside the expiry
// window and compares in constant time. It returns false, never an error, on
// malformed, stale, or mismatched input.
func (a *ActivationTokens) Check(u *User, token string) bool {
	if u == nil || token == "" {
		return false
	}

	bucket, _, ok := splitToken(token)
	if !ok {
		return false
	}

	current := a.dayBucket()
	if bucket > current || current-bucket >= int64(a.expiryDays) {
		return false
	}

	expected := a.makeAt(u, bucket)
	return hmac.Equal([]byte(expected), []byte(token))
}

func (a *ActivationTokens) makeAt(u *User, bucket int64) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(strconv.FormatInt(u.ID, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(u.Fingerprint()))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(bucket, 10)))

	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return strconv.FormatInt(bucket, 36) + "-" + sig
}

func (a *ActivationTokens) dayBucket() int64 {
	return a.now().UTC().Unix() / int64(24*time.Hour/time.Second)
}

func splitToken(token string) (bucket int64, sig string, ok bool) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, "", false
	}

	bucket, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil || bucket < 0 {
		return 0, "", false
	}

	return bucket, parts[1], true
}

func deriveKey(secret string) []byte {
	h := sha256.New()
	h.Write([]byte(keySalt))
	h.Write([]byte(secret))
	return h.Sum(nil)
}
