package salsaauth

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UserZipCodes stores the auxiliary postal code record collected at signup.
type UserZipCodes interface {
	Create(ctx context.Context, record *UserZipCode) (*UserZipCode, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *UserZipCode) (*UserZipCode, error)
	GetByUserID(ctx context.Context, userID int64) (*UserZipCode, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID int64) (*UserZipCode, error)
}

type userZipCodes struct {
	db *bun.DB
}

var _ UserZipCodes = (*userZipCodes)(nil)

func NewUserZipCodesRepository(db *bun.DB) UserZipCodes {
	return &userZipCodes{db: db}
}

func (a *userZipCodes) Create(ctx context.Context, record *UserZipCode) (*UserZipCode, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *userZipCodes) CreateTx(ctx context.Context, tx bun.IDB, record *UserZipCode) (*UserZipCode, error) {
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "zip code already recorded for user").
				WithCode(goerrors.CodeConflict).
				WithMetadata(map[string]any{"user_id": record.UserID})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert user zip code")
	}

	return record, nil
}

func (a *userZipCodes) GetByUserID(ctx context.Context, userID int64) (*UserZipCode, error) {
	return a.GetByUserIDTx(ctx, a.db, userID)
}

func (a *userZipCodes) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID int64) (*UserZipCode, error) {
	record := &UserZipCode{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("zip code not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{"user_id": userID})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user zip code")
	}

	return record, nil
}
