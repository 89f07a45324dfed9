package salsaauth_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	salsaauth "github.com/hancush/salsa-auth"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig satisfies salsaauth.Config with fixed values.
type testConfig struct {
	signingSecret    string
	cookieName       string
	cookieDomain     string
	redirectLocation string
	mailFrom         string
	siteScheme       string
	siteDomain       string
	tokenExpiryDays  int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingSecret:    "test-signing-secret",
		cookieName:       "salsa_auth",
		cookieDomain:     ".example.org",
		redirectLocation: "https://example.org/database",
		mailFrom:         "testing@example.org",
		siteScheme:       "https",
		siteDomain:       "auth.example.org",
		tokenExpiryDays:  3,
	}
}

func (c *testConfig) GetSigningSecret() string    { return c.signingSecret }
func (c *testConfig) GetCookieName() string       { return c.cookieName }
func (c *testConfig) GetCookieDomain() string     { return c.cookieDomain }
func (c *testConfig) GetRedirectLocation() string { return c.redirectLocation }
func (c *testConfig) GetMailFrom() string         { return c.mailFrom }
func (c *testConfig) GetSiteScheme() string       { return c.siteScheme }
func (c *testConfig) GetSiteDomain() string       { return c.siteDomain }
func (c *testConfig) GetTokenExpiryDays() int     { return c.tokenExpiryDays }

// MockRepositoryManager implements salsaauth.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() salsaauth.Users {
	args := m.Called()
	return args.Get(0).(salsaauth.Users)
}

func (m *MockRepositoryManager) ZipCodes() salsaauth.UserZipCodes {
	args := m.Called()
	return args.Get(0).(salsaauth.UserZipCodes)
}

// MockUsers implements salsaauth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Create(ctx context.Context, record *salsaauth.User) (*salsaauth.User, error) {
	args := m.Called(ctx, record)
	return userResult(args)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *salsaauth.User) (*salsaauth.User, error) {
	args := m.Called(ctx, tx, record)
	return userResult(args)
}

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*salsaauth.User, error) {
	args := m.Called(ctx, id)
	return userResult(args)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*salsaauth.User, error) {
	args := m.Called(ctx, tx, id)
	return userResult(args)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*salsaauth.User, error) {
	args := m.Called(ctx, email)
	return userResult(args)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*salsaauth.User, error) {
	args := m.Called(ctx, tx, email)
	return userResult(args)
}

func (m *MockUsers) MarkVerified(ctx context.Context, id int64) (*salsaauth.User, error) {
	args := m.Called(ctx, id)
	return userResult(args)
}

func (m *MockUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id int64) (*salsaauth.User, error) {
	args := m.Called(ctx, tx, id)
	return userResult(args)
}

func userResult(args mock.Arguments) (*salsaauth.User, error) {
	record, _ := args.Get(0).(*salsaauth.User)
	return record, args.Error(1)
}

// MockUserZipCodes implements salsaauth.UserZipCodes
type MockUserZipCodes struct {
	mock.Mock
}

func (m *MockUserZipCodes) Create(ctx context.Context, record *salsaauth.UserZipCode) (*salsaauth.UserZipCode, error) {
	args := m.Called(ctx, record)
	return zipResult(args)
}

func (m *MockUserZipCodes) CreateTx(ctx context.Context, tx bun.IDB, record *salsaauth.UserZipCode) (*salsaauth.UserZipCode, error) {
	args := m.Called(ctx, tx, record)
	return zipResult(args)
}

func (m *MockUserZipCodes) GetByUserID(ctx context.Context, userID int64) (*salsaauth.UserZipCode, error) {
	args := m.Called(ctx, userID)
	return zipResult(args)
}

func (m *MockUserZipCodes) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID int64) (*salsaauth.UserZipCode, error) {
	args := m.Called(ctx, tx, userID)
	return zipResult(args)
}

func zipResult(args mock.Arguments) (*salsaauth.UserZipCode, error) {
	record, _ := args.Get(0).(*salsaauth.UserZipCode)
	return record, args.Error(1)
}

// MockRegistry implements salsaauth.SupporterRegistry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) GetSupporter(ctx context.Context, email string) (*salsaauth.Supporter, error) {
	args := m.Called(ctx, email)
	supporter, _ := args.Get(0).(*salsaauth.Supporter)
	return supporter, args.Error(1)
}

func (m *MockRegistry) PutSupporter(ctx context.Context, user *salsaauth.User, zipCode string) error {
	args := m.Called(ctx, user, zipCode)
	return args.Error(0)
}

// MockVerificationSender implements salsaauth.VerificationSender
type MockVerificationSender struct {
	mock.Mock
}

func (m *MockVerificationSender) SendVerification(ctx context.Context, user *salsaauth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// memoryMailer records sent messages in memory.
type memoryMailer struct {
	to      []string
	subject []string
	body    []string
	err     error
}

func (m *memoryMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	m.body = append(m.body, htmlBody)
	return nil
}
