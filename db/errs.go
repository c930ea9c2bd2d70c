package db

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// IsPqForeignKeyViolationError reports whether err is a postgres
// foreign key violation, optionally over any of the given columns.
func IsPqForeignKeyViolationError(err error, columns ...string) bool {
	return isPqError(err, "foreign_key_violation", columns...)
}

// IsPqUniqueViolationError reports whether err is a postgres
// unique violation, optionally over any of the given columns.
func IsPqUniqueViolationError(err error, columns ...string) bool {
	return isPqError(err, "unique_violation", columns...)
}

func isPqError(err error, codeName string, columns ...string) bool {
	var e *pq.Error
	if !errors.As(err, &e) || e.Code.Name() != codeName {
		return false
	}

	if len(columns) == 0 {
		return true
	}

	// Column names only surface in the error message text.
	msg := strings.ToLower(e.Error())
	for _, col := range columns {
		if strings.Contains(msg, strings.ToLower(col)) {
			return true
		}
	}

	return false
}
