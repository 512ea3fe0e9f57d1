package credentials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

func TestPool_EmptyIsExhausted(t *testing.T) {
	p := NewPool([]string{"", "  "})
	assert.Equal(t, 0, p.Size())

	_, err := p.Select()
	assert.True(t, errors.Is(err, domain.ErrPoolExhausted))
}

func TestPool_DropsDuplicates(t *testing.T) {
	p := NewPool([]string{"k1", "k1", " k2 "})
	assert.Equal(t, 2, p.Size())
}

func TestPool_SelectUsesPicker(t *testing.T) {
	p := NewPool([]string{"k1", "k2", "k3"})
	p.pick = func(n int) int { return n - 1 }

	c, err := p.Select()
	require.NoError(t, err)
	assert.Equal(t, domain.Credential("k3"), c)
}

func TestPool_SpreadsAcrossKeys(t *testing.T) {
	p := NewPool([]string{"k1", "k2", "k3"})
	seen := map[domain.Credential]int{}
	for i := 0; i < 3000; i++ {
		c, err := p.Select()
		require.NoError(t, err)
		seen[c]++
	}
	require.Len(t, seen, 3)
	for k, n := range seen {
		assert.Greater(t, n, 700, "key %s picked only %d times", k, n)
	}
}
