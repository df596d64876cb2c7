package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"gorm.io/gorm"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// isUniqueViolation reports whether err comes from a unique index or primary
// key violation. Drivers that do not translate errors are matched by message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func invalidInput(err error) *appErr.AppError {
	return appErr.Wrap(err, appErr.CodeInvalid, "invalid input")
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr.New(appErr.CodeNotFound, message)
	}
	return appErr.Wrap(err, appErr.CodeInternal, "database query failed")
}
