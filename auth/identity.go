// Package auth implements the identity-assertion boundary, the authorization
// policy, and the token lifecycle service built on the token storage
// capability.
package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/token"
)

// Caller is the authenticated principal a lifecycle operation acts for,
// threaded explicitly into every operation.
type Caller struct {
	UserID token.UserID
	Scope  token.Scope
}

// ExtractIdentity turns the two trusted identity fields supplied by the
// upstream authentication layer into a validated caller. This is a security
// boundary: only values sourced from the designated trusted fields may ever
// reach it. A nil field means the upstream never supplied it.
func ExtractIdentity(userField, scopeField *string) (Caller, error) {
	if userField == nil {
		return Caller{}, apperrors.ErrMissingIdentity
	}
	if scopeField == nil {
		return Caller{}, apperrors.ErrMissingScope
	}

	userID := strings.TrimSpace(*userField)
	if userID == "" || strings.ContainsAny(userID, " \t\n\r") {
		return Caller{}, apperrors.Wrapf(apperrors.ErrMalformedIdentity, "ExtractIdentity user field")
	}

	scope, err := token.ParseScope(*scopeField)
	if err != nil {
		return Caller{}, apperrors.Wrapf(apperrors.ErrMalformedScope, "ExtractIdentity scope field: %v", err)
	}

	return Caller{UserID: token.UserID(userID), Scope: scope}, nil
}
