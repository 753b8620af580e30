package db

import (
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

// ErrorClass groups database failures by how a caller should react to them.
type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateNotNullViolation    = "23502"
	sqlStateCheckViolation      = "23514"
	sqlStateSerialization       = "40001"
	sqlStateDeadlock            = "40P01"
	sqlStateLockNotAvailable    = "55P03"
)

// SQLState extracts the Postgres error code from pgx or lib/pq errors.
func SQLState(err error) string {
	pg, _ := pkgerrors.Postgres(err)
	return pg.Code
}

func constraintName(err error) string {
	pg, _ := pkgerrors.Postgres(err)
	return pg.Constraint
}

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	switch SQLState(err) {
	case sqlStateSerialization:
		return ErrorClassSerialization
	case sqlStateDeadlock:
		return ErrorClassDeadlock
	case sqlStateLockNotAvailable:
		return ErrorClassTransient
	case sqlStateUniqueViolation, sqlStateForeignKeyViolation, sqlStateNotNullViolation, sqlStateCheckViolation:
		return ErrorClassPermanent
	}

	// sqlite reports lock contention as plain text.
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return ErrorClassTransient
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return true
	default:
		return false
	}
}

// IsUniqueViolation reports whether err is a unique violation. When hints are
// provided, at least one must appear in the constraint name or the error text.
func IsUniqueViolation(err error, hints ...string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	matched := SQLState(err) == sqlStateUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
	if !matched {
		return false
	}
	if len(hints) == 0 {
		return true
	}

	constraint := constraintName(err)
	for _, hint := range hints {
		if hint == "" {
			continue
		}
		if strings.Contains(constraint, hint) || strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows)
}
