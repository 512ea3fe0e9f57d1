package analysis

import (
	"fmt"
	"strings"
	"unicode"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

const (
	MatchSubstring = "substring"
	MatchToken     = "token"
)

// SubstringMatcher hits when the lower-cased product name contains the
// lower-cased query anywhere. "Cola" therefore also hits "Chocolate".
type SubstringMatcher struct{}

func (SubstringMatcher) Match(productName, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(productName), q)
}

// TokenMatcher hits only when the query's words appear as consecutive whole
// words of the product name.
type TokenMatcher struct{}

func (TokenMatcher) Match(productName, query string) bool {
	q := tokens(query)
	if len(q) == 0 {
		return false
	}
	p := tokens(productName)
	for i := 0; i+len(q) <= len(p); i++ {
		hit := true
		for j := range q {
			if p[i+j] != q[j] {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MatcherFor resolves the cache match policy named in config.
func MatcherFor(policy string) (domain.Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", MatchSubstring:
		return SubstringMatcher{}, nil
	case MatchToken:
		return TokenMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown cache match policy: %s (supported: substring, token)", policy)
	}
}
