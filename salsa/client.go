// Package salsa implements the supporter registry against the Salsa
// Engage integration API. Membership checks and supporter upserts both
// go through this client; there is no local cache of mailing list state.
package salsa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	salsaauth "github.com/hancush/salsa-auth"
)

const (
	supporterSearchPath = "/api/integration/ext/v1/supporters/search"
	supporterUpsertPath = "/api/integration/ext/v1/supporters"

	identifierTypeEmail = "EMAIL_ADDRESS"

	resultFound = "FOUND"
	resultAdded = "ADDED"

	contactTypeEmail = "EMAIL"

	authTokenHeader = "authToken"

	defaultTimeout = time.Second * 10
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  salsaauth.Logger
}

type Option func(*Client) *Client

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) *Client {
		if client != nil {
			c.http = client
		}
		return c
	}
}

func WithLogger(logger salsaauth.Logger) Option {
	return func(c *Client) *Client {
		if logger != nil {
			c.logger = logger
		}
		return c
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) *Client {
		c.http.Timeout = timeout
		return c
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  salsaauth.NewDefaultLogger(),
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

type searchRequest struct {
	Payload searchQuery `json:"payload"`
}

type searchQuery struct {
	Identifiers    []string `json:"identifiers"`
	IdentifierType string   `json:"identifierType"`
}

type upsertRequest struct {
	Payload upsertBody `json:"payload"`
}

type upsertBody struct {
	Supporters []supporterRecord `json:"supporters"`
}

type supporterEnvelope struct {
	Payload upsertBody `json:"payload"`
}

type supporterRecord struct {
	SupporterID string         `json:"supporterId,omitempty"`
	Result      string         `json:"result,omitempty"`
	FirstName   string         `json:"firstName,omitempty"`
	LastName    string         `json:"lastName,omitempty"`
	Contacts    []contact      `json:"contacts,omitempty"`
	Address     *streetAddress `json:"address,omitempty"`
}

type contact struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Status string `json:"status,omitempty"`
}

type streetAddress struct {
	PostalCode string `json:"postalCode,omitempty"`
}

// GetSupporter looks a supporter up by email. A missing supporter is not
// an error: the method returns nil, nil so callers can treat absence as
// a business outcome rather than a fault.
func (c *Client) GetSupporter(ctx context.Context, email string) (*salsaauth.Supporter, error) {
	body := searchRequest{
		Payload: searchQuery{
			Identifiers:    []string{email},
			IdentifierType: identifierTypeEmail,
		},
	}

	var envelope supporterEnvelope
	if err := c.do(ctx, http.MethodPost, supporterSearchPath, body, &envelope); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "supporter search failed").
			WithMetadata(map[string]any{"email": email})
	}

	for _, record := range envelope.Payload.Supporters {
		if record.Result != resultFound {
			continue
		}
		if supporter := record.toSupporter(); supporter != nil {
			return supporter, nil
		}
	}

	return nil, nil
}

// PutSupporter upserts the verified user into the mailing list. Engage
// matches on the email contact, so repeat calls update in place instead
// of creating duplicates.
func (c *Client) PutSupporter(ctx context.Context, user *salsaauth.User, zipCode string) error {
	if user == nil {
		return goerrors.New("cannot register nil user as supporter", goerrors.CategoryBadInput)
	}

	record := supporterRecord{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Contacts: []contact{
			{Type: contactTypeEmail, Value: user.Email},
		},
	}

	if zipCode != "" {
		record.Address = &streetAddress{PostalCode: zipCode}
	}

	body := upsertRequest{
		Payload: upsertBody{
			Supporters: []supporterRecord{record},
		},
	}

	var envelope supporterEnvelope
	if err := c.do(ctx, http.MethodPut, supporterUpsertPath, body, &envelope); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "supporter upsert failed").
			WithMetadata(map[string]any{"email": user.Email})
	}

	for _, rec := range envelope.Payload.Supporters {
		if rec.Result == resultAdded || rec.Result == resultFound || rec.Result == "" {
			continue
		}
		return goerrors.New("supporter upsert rejected", goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"email":  user.Email,
				"result": rec.Result,
			})
	}

	c.logger.Debug("supporter upserted", "email", user.Email)

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authTokenHeader, c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (r supporterRecord) toSupporter() *salsaauth.Supporter {
	supporter := &salsaauth.Supporter{
		SupporterID: r.SupporterID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
	}

	for _, ct := range r.Contacts {
		if ct.Type == contactTypeEmail && ct.Value != "" {
			supporter.Email = ct.Value
			break
		}
	}

	if r.Address != nil {
		supporter.ZipCode = r.Address.PostalCode
	}

	if supporter.Email == "" {
		return nil
	}

	return supporter
}
