package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/kailas-cloud/agora/internal/db"
)

// SQLSTATE codes the store distinguishes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
	codeQueryCanceled       = "57014"
)

// Translate maps gorm and driver errors to db sentinels and attaches op.
// The original error stays reachable through errors.As.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classify(err); sentinel != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", sentinel, err)}
	}
	return &db.Error{Op: op, Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return db.ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return db.ErrForeignKey
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return db.ErrCanceled
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return db.ErrDuplicateKey
	case codeForeignKeyViolation:
		return db.ErrForeignKey
	case codeInvalidTextRepr:
		return db.ErrInvalidInput
	case codeQueryCanceled:
		return db.ErrCanceled
	}
	return nil
}
