package analysis

import (
	"errors"
	"time"
)

const DegradedProductName = "Connection Error"

// NewDegraded builds the placeholder returned when an analysis could not be
// completed. It is never stored in the history.
func NewDegraded(cause error, now time.Time) Result {
	r := Result{
		ProductName:   DegradedProductName,
		HealthScore:   0,
		Verdict:       VerdictCaution,
		Ingredients:   []IngredientFinding{},
		AllergyAlerts: []string{},
		Timestamp:     now,
	}
	switch {
	case errors.Is(cause, ErrQuotaExceeded):
		r.Error = "Quota limit reached. Please check the Vault for previous scans."
		r.Summary = "The AI is currently resting. Try searching for a previously scanned item!"
	case errors.Is(cause, ErrPoolExhausted):
		r.Error = "No API key is configured for the analysis service."
		r.Summary = "Analysis is unavailable right now. Previously scanned items are still in your history."
	case errors.Is(cause, ErrEmptyResponse), errors.Is(cause, ErrSchemaViolation):
		r.Error = "The analysis service returned an unreadable answer."
		r.Summary = "We could not read the analysis for this item. Please try again."
	default:
		r.Error = "The analysis service could not be reached."
		r.Summary = "The AI is currently resting. Try searching for a previously scanned item!"
	}
	return r
}
