package salsaauth

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options every workflow needs. Values are injected at
// construction time; nothing in this package reads process-wide state.
type Config interface {
	GetSigningSecret() string
	GetCookieName() string
	GetCookieDomain() string
	GetRedirectLocation() string
	GetMailFrom() string
	GetSiteScheme() string
	GetSiteDomain() string
	GetTokenExpiryDays() int
}

// Mailer delivers a rendered message. The SMTP implementation lives in the
// mailer subpackage; tests use an in-memory fake.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Supporter is the registry's view of a mailing list member. It is read-only
// from our side; we never own these records.
type Supporter struct {
	SupporterID string
	Email       string
	FirstName   string
	LastName    string
	ZipCode     string
}

// GreetingName returns the name to greet the supporter by, falling back to
// the email address when the registry has no first name on file.
func (s *Supporter) GreetingName() string {
	if s == nil {
		return ""
	}
	if name := strings.TrimSpace(s.FirstName); name != "" {
		return name
	}
	return s.Email
}

// SupporterRegistry is the narrow surface of the external CRM this package
// relies on. GetSupporter returns (nil, nil) when the email has no record;
// absence is a normal outcome, not a fault. PutSupporter must be a repeatable
// upsert keyed by email.
type SupporterRegistry interface {
	GetSupporter(ctx context.Context, email string) (*Supporter, error)
	PutSupporter(ctx context.Context, user *User, zipCode string) error
}

// NewDefaultLogger returns the stdout fallback logger used when callers
// do not provide their own.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SALSA "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SALSA "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SALSA "+newline(format), args...)
}

func newline(format string) string {
	if strings.HasSuffix(format, "\n") {
		return format
	}
	return format + "\n"
}
