package salsaauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	UIDToken   string `json:"uid"`
	Token      string `json:"token"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	Valid bool
	User  *User
}

// VerifyEmailHandler checks a presented activation link against the user's
// current state. Every failure mode (undecodable uid, unknown user, stale or
// forged token) collapses into Valid=false with zero state change, so a bad
// link can be retried forever without side effects. Success marks the user
// verified and registers them with the supporter registry in the same
// transaction.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	tokens   *ActivationTokens
	registry SupporterRegistry
	logger   Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, tokens *ActivationTokens) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithRegistry(registry SupporterRegistry) *VerifyEmailHandler {
	h.registry = registry
	return h
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := DecodeUID(event.UIDToken)
	if err != nil {
		h.logger.Debug("verification link with undecodable uid token")
		h.respond(event, resp)
		return nil
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIDTx(ctx, tx, id)
		if err != nil {
			// unknown user is part of the expected flow, not an
			// application error
			if goerrors.IsNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
		}

		if !h.tokens.Check(user, event.Token) {
			h.logger.Debug("activation token rejected", "user_id", user.ID)
			return nil
		}

		verified, err := h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		if h.registry != nil {
			zip, err := h.repo.ZipCodes().GetByUserIDTx(ctx, tx, verified.ID)
			zipCode := ""
			if err == nil {
				zipCode = zip.ZipCode
			} else if !goerrors.IsNotFound(err) {
				return err
			}

			if err := h.registry.PutSupporter(ctx, verified, zipCode); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to register supporter")
			}
		}

		resp.Valid = true
		resp.User = verified
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute email verification")
	}

	h.respond(event, resp)
	return nil
}

func (h *VerifyEmailHandler) respond(event VerifyEmailMessage, resp *VerifyEmailResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
