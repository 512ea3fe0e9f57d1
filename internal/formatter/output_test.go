package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

func init() {
	color.NoColor = true
}

func sample() domain.Result {
	swap := "Sparkling water"
	return domain.Result{
		ID:          1,
		ProductName: "Energy Drink",
		HealthScore: 22,
		Verdict:     domain.VerdictAvoid,
		Summary:     "Very high in sugar and caffeine for your BMI.",
		Composition: domain.Composition{Safe: 20, Questionable: 30, Harmful: 50},
		Nutrition:   domain.Nutrition{Calories: 160, Carbs: 41, Sugar: 39},
		Ingredients: []domain.IngredientFinding{
			{Name: "Taurine", Risk: domain.RiskMedium, Impact: "Stimulant.", Tags: []string{"Additive"}},
			{Name: "Sucrose", Risk: domain.RiskHigh, Tags: []string{}, Alternative: &swap},
		},
		AllergyAlerts: []string{"Soy"},
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDisplayResult_Human(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayResult(&buf, sample(), "human"))
	out := buf.String()
	assert.Contains(t, out, "Energy Drink")
	assert.Contains(t, out, "Verdict: AVOID")
	assert.Contains(t, out, "22/100")
	assert.Contains(t, out, "ALLERGY ALERT")
	assert.Contains(t, out, "harmful 50%")
	assert.Contains(t, out, "2. 🔴 Sucrose")
	assert.Contains(t, out, "Swap: Sparkling water")
}

func TestDisplayResult_Degraded(t *testing.T) {
	var buf bytes.Buffer
	r := domain.NewDegraded(domain.ErrQuotaExceeded, time.Now())
	require.NoError(t, DisplayResult(&buf, r, ""))
	assert.Contains(t, buf.String(), "Quota limit reached")
	assert.NotContains(t, buf.String(), "Composition")
}

func TestDisplayResult_JSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayResult(&buf, sample(), "json"))
	var back domain.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "Energy Drink", back.ProductName)

	buf.Reset()
	require.NoError(t, DisplayResult(&buf, sample(), "yaml"))
	assert.Contains(t, buf.String(), "productName: Energy Drink")
	assert.Contains(t, buf.String(), "healthScore: 22")

	assert.Error(t, DisplayResult(&buf, sample(), "xml"))
}

func TestDisplayAllergies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayAllergies(&buf, domain.AllergyOptions, "human"))
	assert.Equal(t, len(domain.AllergyOptions), strings.Count(buf.String(), "•"))
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four", 12, "  ")
	assert.Equal(t, "  one two\n  three four", out)
}
