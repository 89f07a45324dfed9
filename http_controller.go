package salsaauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/nyaruka/phonenumbers"
)

// CookieMaxAge is how long the access cookie stays valid.
const CookieMaxAge = 52 * 7 * 24 * time.Hour

// FormResponse is the body returned by the signup and login endpoints.
// Exactly one of RedirectURL and Errors is set.
type FormResponse struct {
	RedirectURL *string             `json:"redirect_url"`
	Errors      map[string][]string `json:"errors"`
}

func formRedirect(url string) FormResponse {
	return FormResponse{RedirectURL: &url}
}

func formErrors(errs map[string][]string) FormResponse {
	return FormResponse{Errors: errs}
}

func RegisterSalsaAuthRoutes[T any](app router.Router[T], opts ...SalsaAuthControllerOption) {

	controller := NewSalsaAuthController(opts...)

	app.
		Post(controller.Routes.SignUp, controller.SignUpPost).
		SetName("salsa.sign-up.post")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("salsa.login.post")

	app.
		Get(fmt.Sprintf("%s/:uid/:token", controller.Routes.Verify), controller.VerifyEmail).
		SetName("salsa.verify.get")

	app.
		Get(controller.Routes.Authenticate, controller.Authenticate).
		SetName("salsa.authenticate.get")
}

type SalsaAuthControllerRoutes struct {
	SignUp       string
	Login        string
	Verify       string
	Authenticate string
}

type SalsaAuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Registry     SupporterRegistry
	Mailer       VerificationSender
	Tokens       *ActivationTokens
	Config       Config
	Routes       *SalsaAuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type SalsaAuthControllerOption func(*SalsaAuthController) *SalsaAuthController

func NewSalsaAuthController(opts ...SalsaAuthControllerOption) *SalsaAuthController {
	c := &SalsaAuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &SalsaAuthControllerRoutes{
			SignUp:       "/signup",
			Login:        "/login",
			Verify:       "/verify",
			Authenticate: "/authenticate",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in salsa auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing ActivationTokens in salsa auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in salsa auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerRegistry(registry SupporterRegistry) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Registry = registry
		return c
	}
}

func WithControllerMailer(mailer VerificationSender) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerTokens(tokens *ActivationTokens) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerConfig(config Config) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Config = config
		return c
	}
}

func WithControllerRoutes(routes *SalsaAuthControllerRoutes) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Routes = routes
		return c
	}
}

func WithControllerDebug(debug bool) SalsaAuthControllerOption {
	return func(c *SalsaAuthController) *SalsaAuthController {
		c.Debug = debug
		return c
	}
}

// SignUpPayload is the form payload
type SignUpPayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone" json:"phone"`
	ZipCode   string `form:"zip_code" json:"zip_code"`
	Next      string `form:"next" json:"next"`
}

// Validate will validate the payload
func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.ZipCode, validation.Required, validation.Length(5, 10), is.Digit),
		validation.Field(&r.Next, validation.Required),
	)
}

func (a *SalsaAuthController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign up parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign up validate payload: ", "error", err)
		return ctx.JSON(router.StatusOK, formErrors(FormatValidationErrorsToMap(err)))
	}

	if a.Debug {
		fmt.Println("======= SALSA SIGN UP =======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	req := SignUpMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		ZipCode:   payload.ZipCode,
	}

	signUp := NewSignUpHandler(a.Repo).
		WithMailer(a.Mailer).
		WithLogger(a.Logger)

	if err := signUp.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("sign up execute: ", "error", err)
		return ctx.JSON(router.StatusOK, formErrors(signUpErrors(err)))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Thanks for signing up!",
		"messages": []string{
			"Thanks for signing up!",
			"Please check your email for an activation link.",
		},
	}).JSON(router.StatusOK, formRedirect(payload.Next))
}

// LoginPayload is the form payload
type LoginPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *SalsaAuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusOK, formErrors(FormatValidationErrorsToMap(err)))
	}

	var res *LoginResponse

	req := LoginMessage{
		Email: payload.Email,
		OnResponse: func(resp *LoginResponse) {
			res = resp
		},
	}

	login := NewLoginHandler(a.Registry).WithLogger(a.Logger)

	if err := login.Execute(ctx.Context(), req); err != nil {
		if IsNotAMember(err) {
			msg := fmt.Sprintf(
				"<strong>%s</strong> is not subscribed to the mailing list. Please sign up to access this tool.",
				payload.Email,
			)
			return ctx.JSON(router.StatusOK, formErrors(map[string][]string{
				"email": {msg},
			}))
		}

		a.Logger.Error("login execute: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= SALSA LOGIN =========")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("=============================")
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": fmt.Sprintf("Welcome back, %s!", res.Greeting),
	}).JSON(router.StatusOK, formRedirect(a.Routes.Authenticate))
}

func (a *SalsaAuthController) VerifyEmail(ctx router.Context) error {
	uid := ctx.Param("uid")
	token := ctx.Param("token")

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		UIDToken: uid,
		Token:    token,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Repo, a.Tokens).
		WithRegistry(a.Registry).
		WithLogger(a.Logger)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify email execute: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if !res.Valid {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Invalid activation link.",
			"messages": []string{
				"Invalid activation link.",
				"Think you received this message in error? Get in touch.",
			},
		}).Redirect(a.Config.GetRedirectLocation(), router.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": fmt.Sprintf("Welcome back, %s!", res.User.GreetingName()),
	}).Redirect(a.Routes.Authenticate, router.StatusSeeOther)
}

func (a *SalsaAuthController) Authenticate(ctx router.Context) error {
	ctx.Cookie(&router.Cookie{
		Name:    a.Config.GetCookieName(),
		Value:   "true",
		Domain:  a.Config.GetCookieDomain(),
		Expires: time.Now().Add(CookieMaxAge),
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "We've logged you in so you can continue using the database.",
	}).Redirect(a.Config.GetRedirectLocation(), router.StatusSeeOther)
}

// signUpErrors maps a failed sign up to the form error shape. Duplicate
// emails surface on the email field, anything else on the form itself.
func signUpErrors(err error) map[string][]string {
	if IsConflict(err) {
		return map[string][]string{
			"email": {"An account with this email address already exists."},
		}
	}
	return map[string][]string{
		"form": {err.Error()},
	}
}

// FormatValidationErrorsToMap flattens ozzo validation errors into the
// field to messages shape the frontend expects.
func FormatValidationErrorsToMap(err error) map[string][]string {
	out := map[string][]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = append(out[field], ferr.Error())
		}
		return out
	}

	out["form"] = append(out["form"], err.Error())
	return out
}

// ValidatePhoneNumber accepts empty values, otherwise the value has to
// parse as a US phone number.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(router.StatusBadRequest, formErrors(map[string][]string{
		"form": {err.Error()},
	}))
}
