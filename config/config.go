// Package config loads application settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// App holds every setting the service reads. It satisfies the root
// package's Config interface through the Get* methods below.
type App struct {
	ListenAddr  string `env:"SALSA_AUTH_LISTEN_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"SALSA_AUTH_DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
	Debug       bool   `env:"SALSA_AUTH_DEBUG" envDefault:"false"`

	SigningSecret    string `env:"SALSA_AUTH_SIGNING_SECRET,required"`
	TokenExpiryDays  int    `env:"SALSA_AUTH_TOKEN_EXPIRY_DAYS" envDefault:"3"`
	CookieName       string `env:"SALSA_AUTH_COOKIE_NAME,required"`
	CookieDomain     string `env:"SALSA_AUTH_COOKIE_DOMAIN,required"`
	RedirectLocation string `env:"SALSA_AUTH_REDIRECT_LOCATION,required"`

	SiteScheme string `env:"SALSA_AUTH_SITE_SCHEME" envDefault:"https"`
	SiteDomain string `env:"SALSA_AUTH_SITE_DOMAIN,required"`
	MailFrom   string `env:"SALSA_AUTH_MAIL_FROM" envDefault:"testing@datamade.us"`

	SalsaBaseURL  string `env:"SALSA_API_BASE_URL" envDefault:"https://api.salsalabs.org"`
	SalsaAPIToken string `env:"SALSA_API_TOKEN,required"`
}

// Load parses the environment into an App config.
func Load() (*App, error) {
	cfg, err := env.ParseAs[App]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

func (a *App) GetSigningSecret() string    { return a.SigningSecret }
func (a *App) GetCookieName() string       { return a.CookieName }
func (a *App) GetCookieDomain() string     { return a.CookieDomain }
func (a *App) GetRedirectLocation() string { return a.RedirectLocation }
func (a *App) GetMailFrom() string         { return a.MailFrom }
func (a *App) GetSiteScheme() string       { return a.SiteScheme }
func (a *App) GetSiteDomain() string       { return a.SiteDomain }
func (a *App) GetTokenExpiryDays() int     { return a.TokenExpiryDays }
