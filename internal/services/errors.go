package services

import (
	"errors"

	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes for unique_violation and exclusion_violation.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// isConstraintViolation reports whether err is a unique or exclusion
// constraint failure. gorm's TranslateError covers unique keys on every
// driver; the exclusion constraint only surfaces as a raw pgconn error.
func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// asEngineError passes typed report week errors through and wraps anything
// else as internal.
func asEngineError(msg string, err error) error {
	var typed *reportweek.Error
	if errors.As(err, &typed) {
		return typed
	}
	return reportweek.Internal(msg, err)
}
