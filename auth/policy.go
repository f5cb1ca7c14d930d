package auth

import (
	"github.com/jrsteele09/go-token-service/token"
)

// ScopeCompatible reports whether requested is a non-empty subset of granted.
// It bounds what a caller may request for a new token to no more than their
// own assertion grants, so token creation can never escalate privileges.
func ScopeCompatible(requested, granted token.Scope) bool {
	if requested.Len() == 0 {
		return false
	}
	for _, t := range requested.Tokens() {
		if !granted.Contains(t) {
			return false
		}
	}
	return true
}

// BelongsToUser reports whether the token's owner equals userID. Tokens with
// no owner (system tokens) belong to nobody.
func BelongsToUser(details token.TokenDetails, userID token.UserID) bool {
	return details.UserID != nil && *details.UserID == userID
}
