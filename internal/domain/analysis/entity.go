package analysis

import (
	"time"
)

// ResultID identifies an entry in the history. Values only ever grow.
type ResultID int64

// Verdict enum
type Verdict string

const (
	VerdictSafe    Verdict = "Safe"
	VerdictCaution Verdict = "Caution"
	VerdictAvoid   Verdict = "Avoid"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictSafe, VerdictCaution, VerdictAvoid:
		return true
	}
	return false
}

// Risk enum
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Composition value object, percentages. The three parts are not forced to sum to 100.
type Composition struct {
	Safe         int `json:"safe"`
	Questionable int `json:"questionable"`
	Harmful      int `json:"harmful"`
}

// Nutrition value object
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Sugar    float64 `json:"sugar"`
}

// IngredientFinding is one analysed ingredient.
type IngredientFinding struct {
	Name        string   `json:"name"`
	Risk        Risk     `json:"risk"`
	Impact      string   `json:"impact"`
	Tags        []string `json:"tags"`
	Alternative *string  `json:"alternative"`
}

// Result is the canonical output of an analysis. A Result is never mutated
// after it has been handed out; use Clone before changing a copy.
type Result struct {
	ID            ResultID            `json:"id"`
	ProductName   string              `json:"productName"`
	HealthScore   int                 `json:"healthScore"`
	Verdict       Verdict             `json:"verdict"`
	Summary       string              `json:"summary"`
	Composition   Composition         `json:"composition"`
	Nutrition     Nutrition           `json:"nutrition"`
	Ingredients   []IngredientFinding `json:"ingredients"`
	AllergyAlerts []string            `json:"allergyAlerts"`
	Timestamp     time.Time           `json:"timestamp"`

	// Error is only set on degraded placeholders.
	Error string `json:"error,omitempty"`
}

// Degraded reports whether r is a placeholder built after a failed analysis.
func (r Result) Degraded() bool { return r.Error != "" }

// Clone returns a deep copy so callers cannot reach shared slices.
func (r Result) Clone() Result {
	out := r
	if r.Ingredients != nil {
		out.Ingredients = make([]IngredientFinding, len(r.Ingredients))
		for i, in := range r.Ingredients {
			cp := in
			if in.Tags != nil {
				cp.Tags = append([]string(nil), in.Tags...)
			}
			if in.Alternative != nil {
				alt := *in.Alternative
				cp.Alternative = &alt
			}
			out.Ingredients[i] = cp
		}
	}
	if r.AllergyAlerts != nil {
		out.AllergyAlerts = append([]string(nil), r.AllergyAlerts...)
	}
	return out
}
