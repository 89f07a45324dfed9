package salsaauth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMalformedToken    = "MALFORMED_TOKEN"
	textCodeInvalidActivation = "INVALID_ACTIVATION_LINK"
	textCodeNotAMember        = "NOT_A_MEMBER"
	textCodeInvalidTransition = "INVALID_VERIFICATION_TRANSITION"
)

// ErrMalformedToken is returned when a uid token cannot be decoded. The HTTP
// boundary never surfaces the reason, only the generic invalid link message.
var ErrMalformedToken = goerrors.New("malformed uid token", goerrors.CategoryValidation).
	WithTextCode(textCodeMalformedToken).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidActivationLink is the single user-facing failure for the verify
// flow. Bad uid, unknown user, and stale token all collapse into it so the
// response cannot be used as an oracle.
var ErrInvalidActivationLink = goerrors.New("invalid activation link", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidActivation).
	WithCode(goerrors.CodeBadRequest)

// ErrNotAMember is a business rule rejection, not a system fault: the email
// has no supporter record, so login is refused with a signup prompt.
var ErrNotAMember = goerrors.New("email is not subscribed to the mailing list", goerrors.CategoryAuth).
	WithTextCode(textCodeNotAMember).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when a verification status change is not
// allowed, e.g. moving a verified user back to pending.
var ErrInvalidTransition = goerrors.New("invalid verification state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString guards credential helpers against empty input
var ErrNoEmptyString = errors.New("value should not be an empty string")

// IsNotAMember reports whether err is the membership gate rejection.
func IsNotAMember(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCodeNotAMember
}

// IsConflict reports whether err is a uniqueness conflict, e.g. a signup
// with an email that already has an account.
func IsConflict(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryConflict
}

// IsInvalidActivationLink reports whether err collapses to the generic
// invalid activation link response.
func IsInvalidActivationLink(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	switch richErr.TextCode {
	case textCodeInvalidActivation, textCodeMalformedToken:
		return true
	}
	return false
}
