package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// Input validation and sanitization utilities

const (
	MaxQueryLength = 200
	MaxImageBytes  = 10 << 20
)

// ValidationError marks bad client input; handlers answer it with 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateQuery sanitizes a search query. An empty result is returned as-is;
// the orchestrator reports it as ErrEmptyQuery.
func ValidateQuery(q string) (string, error) {
	q = SanitizeString(q)
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", invalid("query", "longer than %d characters", MaxQueryLength)
	}
	return q, nil
}

// ValidateAllergies maps each entry onto the fixed option list.
func ValidateAllergies(in []string) ([]string, error) {
	uc, err := domain.NewUserContext(in, nil)
	if err != nil {
		return nil, invalid("allergies", "%v", err)
	}
	return uc.Allergies, nil
}

// ValidateBMI returns nil when no value is given. A value without a
// category is accepted; the category then reads N/A in the prompt.
func ValidateBMI(value float64, category string) (*domain.BMI, error) {
	if value == 0 && strings.TrimSpace(category) == "" {
		return nil, nil
	}
	if value <= 0 || value > 100 {
		return nil, invalid("bmi", "value %.1f out of range", value)
	}
	bmi := &domain.BMI{Value: value}
	if strings.TrimSpace(category) != "" {
		c, err := domain.ParseBMICategory(category)
		if err != nil {
			return nil, invalid("bmi", "%v", err)
		}
		bmi.Category = c
	}
	return bmi, nil
}

// ValidateImage checks a label photo by sniffed content type and size. It
// returns the MIME type to send along with it.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", invalid("image", "empty")
	}
	if len(data) > MaxImageBytes {
		return "", invalid("image", "larger than %d bytes", MaxImageBytes)
	}
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return mime, nil
	}
	return "", invalid("image", "unsupported type %s", mime)
}

// ValidateResultID parses a history id from the URL.
func ValidateResultID(s string) (domain.ResultID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", "%q is not a history id", s)
	}
	return domain.ResultID(id), nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage defaults to the first page.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
