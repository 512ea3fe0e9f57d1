package analysis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDegraded_Shape(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	causes := []error{
		ErrPoolExhausted,
		fmt.Errorf("%w: 429", ErrQuotaExceeded),
		fmt.Errorf("%w: dial tcp", ErrNetworkFailure),
		ErrEmptyResponse,
		fmt.Errorf("%w: verdict missing", ErrSchemaViolation),
		errors.New("something else"),
	}
	for _, cause := range causes {
		t.Run(Cause(cause), func(t *testing.T) {
			r := NewDegraded(cause, now)
			assert.Equal(t, 0, r.HealthScore)
			assert.Equal(t, VerdictCaution, r.Verdict)
			assert.Empty(t, r.Ingredients)
			assert.NotEmpty(t, r.Summary)
			assert.True(t, r.Degraded())
			assert.Equal(t, now, r.Timestamp)
		})
	}
}

func TestCause(t *testing.T) {
	assert.Equal(t, "quota_exceeded", Cause(fmt.Errorf("wrap: %w", ErrQuotaExceeded)))
	assert.Equal(t, "network_failure", Cause(ErrNetworkFailure))
	assert.True(t, errors.Is(ErrQuotaExceeded, ErrNetworkFailure))
	assert.Equal(t, "", Cause(nil))
}

func TestClone_DoesNotShareSlices(t *testing.T) {
	alt := "Water"
	r := Result{
		ProductName:   "Soda",
		Ingredients:   []IngredientFinding{{Name: "Sugar", Risk: RiskHigh, Tags: []string{"Sweetener"}, Alternative: &alt}},
		AllergyAlerts: []string{"Corn"},
	}
	c := r.Clone()
	c.Ingredients[0].Tags[0] = "changed"
	*c.Ingredients[0].Alternative = "changed"
	c.AllergyAlerts[0] = "changed"

	assert.Equal(t, "Sweetener", r.Ingredients[0].Tags[0])
	assert.Equal(t, "Water", *r.Ingredients[0].Alternative)
	assert.Equal(t, "Corn", r.AllergyAlerts[0])
}

func TestNewUserContext(t *testing.T) {
	uc, err := NewUserContext([]string{"peanuts", "Tree nuts", "Peanuts", ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Peanuts", "Tree Nuts"}, uc.Allergies)

	_, err = NewUserContext([]string{"Kiwi"}, nil)
	assert.Error(t, err)
}

func TestMatchAllergies(t *testing.T) {
	uc := UserContext{Allergies: []string{"Dairy", "Soy"}}
	assert.Equal(t, []string{"Dairy"}, uc.MatchAllergies([]string{"dairy", "Gluten"}))
	assert.Equal(t, []string{}, UserContext{}.MatchAllergies([]string{"Dairy"}))
}

func TestParseBMICategory(t *testing.T) {
	c, err := ParseBMICategory("Normal weight")
	require.NoError(t, err)
	assert.Equal(t, BMINormal, c)

	_, err = ParseBMICategory("tall")
	assert.Error(t, err)
}
