// Package prompttest provides canned model replies for tests of code that
// talks to a reasoning service.
package prompttest

import (
	"encoding/json"
	"fmt"
)

// Suggestion matches the schema used by the system prompt, field for field.
type Suggestion struct {
	ProductName string `json:"productName"`
	HealthScore int    `json:"healthScore"`
	Verdict     string `json:"verdict"`
	Summary     string `json:"summary"`
	Composition struct {
		Safe         int `json:"safe"`
		Questionable int `json:"questionable"`
		Harmful      int `json:"harmful"`
	} `json:"composition"`
	Nutrition struct {
		Calories float64 `json:"calories"`
		Protein  float64 `json:"protein"`
		Carbs    float64 `json:"carbs"`
		Fats     float64 `json:"fats"`
		Sugar    float64 `json:"sugar"`
	} `json:"nutrition"`
	Ingredients []struct {
		Name        string   `json:"name"`
		Risk        string   `json:"risk"`
		Impact      string   `json:"impact"`
		Tags        []string `json:"tags"`
		Alternative *string  `json:"alternative"`
	} `json:"ingredients"`
	AllergyAlerts []string `json:"allergyAlerts"`
}

// SampleResponse returns a reply in the shape the model is asked for.
func SampleResponse(productName string, allergyAlerts ...string) (string, error) {
	s := Suggestion{
		ProductName: productName,
		HealthScore: 35,
		Verdict:     "Caution",
		Summary:     fmt.Sprintf("%s is fine occasionally but high in sugar.", productName),
	}
	s.Composition.Safe = 40
	s.Composition.Questionable = 40
	s.Composition.Harmful = 20
	s.Nutrition.Calories = 110
	s.Nutrition.Carbs = 28
	s.Nutrition.Sugar = 27

	swap := "Sparkling water"
	s.Ingredients = append(s.Ingredients, struct {
		Name        string   `json:"name"`
		Risk        string   `json:"risk"`
		Impact      string   `json:"impact"`
		Tags        []string `json:"tags"`
		Alternative *string  `json:"alternative"`
	}{
		Name:        "Sucrose",
		Risk:        "High",
		Impact:      "Rapid blood sugar spikes.",
		Tags:        []string{"Sweetener"},
		Alternative: &swap,
	})
	s.AllergyAlerts = append([]string{}, allergyAlerts...)

	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal suggestion: %w", err)
	}
	return string(b), nil
}
