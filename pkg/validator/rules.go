package validator

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be at most %d characters long", max),
			TranslationKey: "validation.max_length",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// ValidEmail validates a bare RFC 5322 address. Display-name forms such as
// "Jane <jane@example.com>" are rejected.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}

			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}

			// Domain must contain at least one dot and no empty labels
			if !strings.Contains(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}

			return true
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must be a valid email address",
			TranslationKey:    "validation.email",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// ValidCollisionResistantID validates a cuid2-style identifier: exactly length
// characters, lowercase ASCII letters and digits, starting with a letter.
// Anything uuid.Parse accepts is rejected, including the 32-digit hex form.
func ValidCollisionResistantID(field, value string, length int) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != length || length == 0 {
				return false
			}
			if value[0] < 'a' || value[0] > 'z' {
				return false
			}
			for i := 1; i < len(value); i++ {
				c := value[i]
				if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
					return false
				}
			}
			_, err := uuid.Parse(value)
			return err != nil
		},
		Error: ValidationError{
			Field:          field,
			Message:        "has an invalid format",
			TranslationKey: "validation.collision_resistant_id",
			TranslationValues: map[string]any{
				"field":  field,
				"length": length,
			},
		},
	}
}

// RequiredUUID validates that a UUID is not the nil UUID.
func RequiredUUID(field string, value uuid.UUID) Rule {
	return Rule{
		Check: func() bool {
			return value != uuid.Nil
		},
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}
