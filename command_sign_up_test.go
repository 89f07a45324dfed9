package salsaauth_test

import (
	"context"
	"database/sql"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	salsaauth "github.com/hancush/salsa-auth"
)

func TestSignUpHandlerCreatesUserAndZipCode(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	zips := &MockUserZipCodes{}
	sender := &MockVerificationSender{}

	created := testUser()

	repo.On("Users").Return(users)
	repo.On("ZipCodes").Return(zips)

	users.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *salsaauth.User) bool {
		return u.Email == "hannah@example.org" &&
			u.FirstName == "Hannah" &&
			!salsaauth.IsUsablePassword(u.PasswordHash)
	})).Return(created, nil).Once()

	zips.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(z *salsaauth.UserZipCode) bool {
		return z.UserID == created.ID && z.ZipCode == "60601"
	})).Return(&salsaauth.UserZipCode{UserID: created.ID, ZipCode: "60601"}, nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			require.NoError(t, fn(args.Get(0).(context.Context), tx))
		}).Once()

	sender.On("SendVerification", mock.Anything, created).Return(nil).Once()

	var resp *salsaauth.SignUpResponse
	event := salsaauth.SignUpMessage{
		FirstName: "Hannah",
		LastName:  "Cushman",
		Email:     "hannah@example.org",
		ZipCode:   "60601",
		OnResponse: func(r *salsaauth.SignUpResponse) {
			resp = r
		},
	}

	handler := salsaauth.NewSignUpHandler(repo).
		WithMailer(sender).
		WithLogger(testLogger{})

	require.NoError(t, handler.Execute(ctx, event))
	require.NotNil(t, resp)
	require.Equal(t, created, resp.User)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
	zips.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSignUpHandlerSurfacesDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	conflict := goerrors.New("email already registered", goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict)

	repo.On("Users").Return(users)
	users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, conflict).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(conflict).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			require.Error(t, fn(args.Get(0).(context.Context), tx))
		}).Once()

	handler := salsaauth.NewSignUpHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(ctx, salsaauth.SignUpMessage{
		FirstName: "Hannah",
		LastName:  "Cushman",
		Email:     "hannah@example.org",
		ZipCode:   "60601",
	})

	require.Error(t, err)
	require.True(t, salsaauth.IsConflict(err))
}

func TestSignUpHandlerPropagatesMailFailure(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	zips := &MockUserZipCodes{}
	sender := &MockVerificationSender{}

	created := testUser()

	repo.On("Users").Return(users)
	repo.On("ZipCodes").Return(zips)
	users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(created, nil).Once()
	zips.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&salsaauth.UserZipCode{}, nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			require.NoError(t, fn(args.Get(0).(context.Context), tx))
		}).Once()

	sender.On("SendVerification", mock.Anything, created).
		Return(goerrors.New("smtp unavailable", goerrors.CategoryOperation)).Once()

	responded := false
	err := salsaauth.NewSignUpHandler(repo).
		WithMailer(sender).
		WithLogger(testLogger{}).
		Execute(ctx, salsaauth.SignUpMessage{
			FirstName: "Hannah",
			LastName:  "Cushman",
			Email:     "hannah@example.org",
			ZipCode:   "60601",
			OnResponse: func(*salsaauth.SignUpResponse) {
				responded = true
			},
		})

	require.Error(t, err)
	require.False(t, responded, "no response callback when delivery fails")
	sender.AssertExpectations(t)
}

func TestSignUpHandlerHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := salsaauth.NewSignUpHandler(&MockRepositoryManager{})
	err := handler.Execute(ctx, salsaauth.SignUpMessage{Email: "hannah@example.org"})
	require.Error(t, err)
}
