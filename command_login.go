package salsaauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type LoginMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *LoginResponse)
}

func (e LoginMessage) Type() string { return "user.login" }

type LoginResponse struct {
	Supporter *Supporter
	// Greeting is the display name for the welcome flash, falling back to
	// the email address when the registry has no first name on file.
	Greeting string
}

// LoginHandler is the membership gate: it consults the supporter registry on
// every attempt, with no caching, and rejects emails that are not on the
// mailing list. Rejection is a business outcome surfaced as ErrNotAMember,
// not a system fault.
type LoginHandler struct {
	registry SupporterRegistry
	logger   Logger
}

func NewLoginHandler(registry SupporterRegistry) *LoginHandler {
	return &LoginHandler{
		registry: registry,
		logger:   defLogger{},
	}
}

func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	supporter, err := h.registry.GetSupporter(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "supporter registry lookup failed").
			WithMetadata(map[string]any{"email": event.Email})
	}

	if supporter == nil {
		h.logger.Info("login rejected, not a supporter", "email", event.Email)
		return goerrors.New("email is not subscribed to the mailing list", goerrors.CategoryAuth).
			WithTextCode(textCodeNotAMember).
			WithCode(goerrors.CodeUnauthorized).
			WithMetadata(map[string]any{"email": event.Email})
	}

	if event.OnResponse != nil {
		event.OnResponse(&LoginResponse{
			Supporter: supporter,
			Greeting:  supporter.GreetingName(),
		})
	}

	return nil
}
