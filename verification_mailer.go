package salsaauth

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// ActivationSubject is the subject line used for activation emails.
const ActivationSubject = "Activate Your Account"

// VerificationSender delivers the account activation email for a newly
// registered user. The token embedded in the link is derived from the
// user's current state, so it has to be generated against the record
// as it was persisted.
type VerificationSender interface {
	SendVerification(ctx context.Context, user *User) error
}

// VerificationMailer renders the activation email from the embedded
// template set and hands it to a Mailer for delivery.
type VerificationMailer struct {
	config Config
	tokens *ActivationTokens
	mailer Mailer
	engine *django.Engine
	logger Logger
}

func NewVerificationMailer(config Config, tokens *ActivationTokens, mailer Mailer) (*VerificationMailer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to scope email templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	return &VerificationMailer{
		config: config,
		tokens: tokens,
		mailer: mailer,
		engine: engine,
		logger: &defLogger{},
	}, nil
}

func (m *VerificationMailer) WithLogger(logger Logger) *VerificationMailer {
	m.logger = logger
	return m
}

// ActivationLink builds the absolute verification URL for the given
// user: {scheme}://{domain}/verify/{uid}/{token}.
func (m *VerificationMailer) ActivationLink(user *User) string {
	return fmt.Sprintf(
		"%s://%s/verify/%s/%s",
		m.config.GetSiteScheme(),
		m.config.GetSiteDomain(),
		EncodeUID(user.ID),
		m.tokens.Make(user),
	)
}

func (m *VerificationMailer) SendVerification(ctx context.Context, user *User) error {
	if user == nil {
		return goerrors.New("cannot send verification for nil user", goerrors.CategoryBadInput)
	}

	link := m.ActivationLink(user)

	var body bytes.Buffer
	err := m.engine.Render(&body, "emails/activate_account", map[string]any{
		"first_name":     user.GreetingName(),
		"domain":         m.config.GetSiteDomain(),
		"activation_url": link,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render activation email")
	}

	if err := m.mailer.Send(ctx, user.Email, ActivationSubject, body.String()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver activation email").
			WithMetadata(map[string]any{"email": user.Email})
	}

	m.logger.Info("activation email dispatched", "email", user.Email)
	return nil
}
