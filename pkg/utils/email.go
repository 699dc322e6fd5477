package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidEmail reports whether s is a single well-formed email address.
func ValidEmail(s string) bool {
	if strings.TrimSpace(s) != s || len(s) > 254 {
		return false
	}
	return validate.Var(s, "required,email") == nil
}
