package db

import (
	"strings"

	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is set, only that constraint matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	if dump.PGCode == pgUniqueViolation {
		return constraintName == "" || dump.PGConstraint == constraintName
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "unique constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, strings.ToLower(constraintName))
}
