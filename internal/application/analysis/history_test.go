package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

func result(name string) domain.Result {
	return domain.Result{
		ProductName:   name,
		Verdict:       domain.VerdictSafe,
		Ingredients:   []domain.IngredientFinding{{Name: "Water", Risk: domain.RiskLow, Tags: []string{}}},
		AllergyAlerts: []string{},
	}
}

func TestHistory_LookupPrefersNewest(t *testing.T) {
	h := NewHistory(nil)
	now := time.UnixMilli(1_000)

	older := h.Append(result("Cola Classic"), now)
	newer := h.Append(result("Cola Zero"), now.Add(time.Second))

	got, ok := h.Lookup("cola")
	require.True(t, ok)
	assert.Equal(t, newer.ID, got.ID)
	assert.NotEqual(t, older.ID, got.ID)

	_, ok = h.Lookup("Water")
	assert.False(t, ok)
}

func TestHistory_IDsAreMonotonic(t *testing.T) {
	h := NewHistory(nil)
	now := time.UnixMilli(5_000)

	a := h.Append(result("A"), now)
	b := h.Append(result("B"), now)
	c := h.Append(result("C"), now.Add(-time.Hour))

	assert.Equal(t, domain.ResultID(5_000), a.ID)
	assert.Equal(t, domain.ResultID(5_001), b.ID)
	assert.Equal(t, domain.ResultID(5_002), c.ID)
}

func TestHistory_ListNewestFirst(t *testing.T) {
	h := NewHistory(nil)
	now := time.UnixMilli(1)
	for _, n := range []string{"A", "B", "C"} {
		h.Append(result(n), now)
	}

	all := h.List(0)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].ProductName)
	assert.Equal(t, "A", all[2].ProductName)

	top := h.List(2)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[1].ProductName)
}

func TestHistory_ClearKeepsIDsGrowing(t *testing.T) {
	h := NewHistory(nil)
	now := time.UnixMilli(10)
	first := h.Append(result("A"), now)
	h.Clear()
	assert.Equal(t, 0, h.Len())

	second := h.Append(result("A"), now)
	assert.Greater(t, second.ID, first.ID)
}

func TestHistory_StoresCopies(t *testing.T) {
	h := NewHistory(nil)
	in := result("Cola")
	stored := h.Append(in, time.UnixMilli(1))

	in.Ingredients[0].Name = "changed"
	stored.Ingredients[0].Name = "changed too"

	got, ok := h.Get(stored.ID)
	require.True(t, ok)
	assert.Equal(t, "Water", got.Ingredients[0].Name)
}

func TestHistory_UsesMatcher(t *testing.T) {
	h := NewHistory(TokenMatcher{})
	h.Append(result("Milk Chocolate"), time.UnixMilli(1))

	_, ok := h.Lookup("cola")
	assert.False(t, ok)
	_, ok = h.Lookup("chocolate")
	assert.True(t, ok)
}
