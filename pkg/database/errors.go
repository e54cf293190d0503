package database

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// duplicateMarkers are the driver messages for a unique-constraint hit when
// the dialector does not translate it into gorm.ErrDuplicatedKey.
var duplicateMarkers = []string{
	"duplicate key value",         // postgres
	"Duplicate entry",             // mysql
	"Cannot insert duplicate key", // sqlserver
	"Violation of UNIQUE KEY",     // sqlserver
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
// When constraint is non-empty a raw driver message must also mention it;
// translated gorm.ErrDuplicatedKey errors carry no name and always match.
//
// sqlite reports the offending columns instead of the index name, so any
// sqlite unique or primary-key failure matches regardless of constraint.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var sep *sqlite3.Error
	if errors.As(err, &sep) && sep != nil {
		return sep.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sep.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	msg := err.Error()
	for _, m := range duplicateMarkers {
		if strings.Contains(msg, m) {
			return constraint == "" || strings.Contains(msg, constraint)
		}
	}
	return false
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
