package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	apperrors "newsstand/internal/errors"
)

const (
	errDuplicateEntry     = 1062
	errRowIsReferenced    = 1451
	errNoReferencedRow    = 1452
	errRowIsReferencedOld = 1217
	errNoReferencedRowOld = 1216
)

// mapError turns constraint violations into ConflictError and leaves every
// other error as is.
func mapError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}

	switch me.Number {
	case errRowIsReferenced, errRowIsReferencedOld:
		return apperrors.WrapConflictError("record is still referenced", err)
	case errNoReferencedRow, errNoReferencedRowOld:
		return apperrors.WrapConflictError("referenced record does not exist", err)
	case errDuplicateEntry:
		return apperrors.WrapConflictError("duplicate entry", err)
	}

	return err
}
