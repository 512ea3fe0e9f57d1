package analysis

import (
	"fmt"
	"strings"
)

// AllergyOptions is the fixed list a user can pick allergies from.
var AllergyOptions = []string{
	"Gluten", "Peanuts", "Dairy", "Soy", "Shellfish", "Tree Nuts", "Eggs", "Corn",
}

// CanonicalAllergy maps user input onto an entry of AllergyOptions, ignoring case.
func CanonicalAllergy(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, opt := range AllergyOptions {
		if strings.EqualFold(opt, s) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown allergy %q (allowed: %s)", s, strings.Join(AllergyOptions, ", "))
}

// BMICategory enum
type BMICategory string

const (
	BMIUnderweight BMICategory = "Underweight"
	BMINormal      BMICategory = "Normal"
	BMIOverweight  BMICategory = "Overweight"
	BMIObese       BMICategory = "Obese"
)

// ParseBMICategory accepts the enum names and the "Normal weight" label used by the web client.
func ParseBMICategory(s string) (BMICategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "underweight":
		return BMIUnderweight, nil
	case "normal", "normal weight":
		return BMINormal, nil
	case "overweight":
		return BMIOverweight, nil
	case "obese":
		return BMIObese, nil
	}
	return "", fmt.Errorf("unknown BMI category %q", s)
}

type BMI struct {
	Value    float64     `json:"value"`
	Category BMICategory `json:"category"`
}

// UserContext is supplied by the caller on every analysis; the core never stores it.
type UserContext struct {
	Allergies []string `json:"allergies"`
	BMI       *BMI     `json:"bmi,omitempty"`
}

// NewUserContext canonicalises and de-duplicates allergies.
func NewUserContext(allergies []string, bmi *BMI) (UserContext, error) {
	uc := UserContext{BMI: bmi}
	seen := make(map[string]bool, len(allergies))
	for _, a := range allergies {
		if strings.TrimSpace(a) == "" {
			continue
		}
		c, err := CanonicalAllergy(a)
		if err != nil {
			return UserContext{}, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		uc.Allergies = append(uc.Allergies, c)
	}
	return uc, nil
}

// MatchAllergies keeps the alerts that name one of the declared allergies,
// using the declared spelling.
func (uc UserContext) MatchAllergies(alerts []string) []string {
	out := []string{}
	for _, declared := range uc.Allergies {
		for _, a := range alerts {
			if strings.EqualFold(strings.TrimSpace(a), declared) {
				out = append(out, declared)
				break
			}
		}
	}
	return out
}
