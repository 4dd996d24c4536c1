package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/dom/codementor/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation"
)

// validationError turns an ozzo validation result into a domain error.
func validationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		keys := make([]string, 0, len(errs))
		for field, fieldErr := range errs {
			if fieldErr == nil {
				continue
			}
			fields[field] = fieldErr.Error()
			keys = append(keys, field)
		}
		sort.Strings(keys)
		return domain.ValidationError("Invalid "+strings.Join(keys, ", "), fields)
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return domain.InternalError(err)
	}
	return domain.ValidationError(err.Error(), nil)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
