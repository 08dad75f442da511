package repo

import (
	"errors"

	"gorm.io/gorm"

	dbpkg "github.com/producehub/producehub-backend/pkg/db"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

// Translate maps storage errors onto the API taxonomy. Errors that already
// carry a code pass through unchanged.
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	case dbpkg.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, entity+" storage failure")
	}
}
