package salsaauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SignUpMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ZipCode    string `json:"zip_code"`
	OnResponse func(resp *SignUpResponse)
}

func (e SignUpMessage) Type() string { return "user.sign_up" }

type SignUpResponse struct {
	User *User
}

// SignUpHandler creates the identity and zip code records in one transaction
// and then dispatches the activation email. A mail failure propagates to the
// caller; the committed user stays put and can re-request a link by signing
// in through support channels.
type SignUpHandler struct {
	repo   RepositoryManager
	mailer VerificationSender
	logger Logger
}

func NewSignUpHandler(repo RepositoryManager) *SignUpHandler {
	return &SignUpHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *SignUpHandler) WithMailer(mailer VerificationSender) *SignUpHandler {
	h.mailer = mailer
	return h
}

func (h *SignUpHandler) WithLogger(logger Logger) *SignUpHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignUpHandler) Execute(ctx context.Context, event SignUpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpHandler) execute(ctx context.Context, event SignUpMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := UnusablePassword()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate credential placeholder")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.FirstName = event.FirstName
		user.LastName = event.LastName

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		zip := &UserZipCode{
			UserID:  user.ID,
			ZipCode: event.ZipCode,
		}
		if _, err := h.repo.ZipCodes().CreateTx(ctx, tx, zip); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "sign up transaction failed")
	}

	// Past this point the account exists. Mail delivery has no retry or
	// dead-letter policy; a send failure surfaces to the caller as-is.
	if h.mailer != nil {
		if err := h.mailer.SendVerification(ctx, user); err != nil {
			h.logger.Error("verification email dispatch failed", "email", user.Email, "error", err)
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification email")
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignUpResponse{User: user})
	}

	return nil
}
