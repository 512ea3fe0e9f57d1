package credentials

import (
	"math/rand/v2"
	"strings"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// Pool picks one of a fixed set of equivalent API keys per request,
// uniformly at random, so that no single key's quota is drained first.
// It keeps no state between calls and never retries.
type Pool struct {
	keys []domain.Credential
	pick func(n int) int
}

// NewPool drops empty keys and duplicates.
func NewPool(keys []string) *Pool {
	p := &Pool{pick: rand.IntN}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		p.keys = append(p.keys, domain.Credential(k))
	}
	return p
}

func (p *Pool) Select() (domain.Credential, error) {
	if len(p.keys) == 0 {
		return "", domain.ErrPoolExhausted
	}
	return p.keys[p.pick(len(p.keys))], nil
}

func (p *Pool) Size() int { return len(p.keys) }
