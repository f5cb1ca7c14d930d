package token

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ScopeToken is a single opaque permission label.
type ScopeToken string

// Scope is a non-empty set of scope tokens. The zero value is invalid;
// construct with NewScope or ParseScope.
type Scope struct {
	tokens map[ScopeToken]struct{}
}

// NewScope builds a scope from distinct tokens. An empty token set, a blank
// token, or a token containing whitespace is rejected.
func NewScope(tokens ...ScopeToken) (Scope, error) {
	if len(tokens) == 0 {
		return Scope{}, errors.New("[NewScope] scope must not be empty")
	}

	set := make(map[ScopeToken]struct{}, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(string(t)) == "" {
			return Scope{}, errors.New("[NewScope] blank scope token")
		}
		if strings.ContainsAny(string(t), " \t\n\r") {
			return Scope{}, errors.Errorf("[NewScope] scope token %q contains whitespace", t)
		}
		set[t] = struct{}{}
	}
	return Scope{tokens: set}, nil
}

// ParseScope decodes a space-separated scope list, e.g. "read write".
func ParseScope(text string) (Scope, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Scope{}, errors.New("[ParseScope] scope text is empty")
	}
	tokens := make([]ScopeToken, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, ScopeToken(f))
	}
	return NewScope(tokens...)
}

// Contains reports whether t is a member of the scope.
func (s Scope) Contains(t ScopeToken) bool {
	_, ok := s.tokens[t]
	return ok
}

// Len returns the number of distinct tokens in the scope.
func (s Scope) Len() int {
	return len(s.tokens)
}

// IsZero reports whether the scope was never constructed.
func (s Scope) IsZero() bool {
	return s.tokens == nil
}

// Tokens returns the scope's members in sorted order.
func (s Scope) Tokens() []ScopeToken {
	out := make([]ScopeToken, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the scope as a sorted, space-separated list.
func (s Scope) String() string {
	tokens := s.Tokens()
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, " ")
}
