package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}
	assert.True(t, m.Match("Red Bull Energy Drink", "energy"))
	assert.True(t, m.Match("Red Bull Energy Drink", "BULL ENERGY"))
	assert.True(t, m.Match("Chocolate", "cola"))
	assert.False(t, m.Match("Cola", "Coca Cola"))
}

func TestTokenMatcher(t *testing.T) {
	m := TokenMatcher{}
	tests := []struct {
		product, query string
		want           bool
	}{
		{"Coca-Cola Zero", "cola", true},
		{"Coca-Cola Zero", "cola zero", true},
		{"Chocolate", "cola", false},
		{"Energy Drink (Sugar Free)", "sugar free", true},
		{"Energy Drink", "drink energy", false},
		{"7UP", "7up", true},
		{"Anything", "  ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.product, tt.query), "%q ~ %q", tt.product, tt.query)
	}
}

func TestMatcherFor(t *testing.T) {
	m, err := MatcherFor("")
	require.NoError(t, err)
	assert.IsType(t, SubstringMatcher{}, m)

	m, err = MatcherFor("Token")
	require.NoError(t, err)
	assert.IsType(t, TokenMatcher{}, m)

	_, err = MatcherFor("fuzzy")
	assert.Error(t, err)
}
