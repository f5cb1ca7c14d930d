package auth

import (
	"github.com/jrsteele09/go-token-service/token"
)

// ManageRequest is the tagged variant for token management. Transports parse
// their stringly "method" field into one of these at the edge; past this
// point dispatch is exhaustive over the variants.
type ManageRequest interface {
	manageRequest()
}

// CreateTokenRequest asks for a new token with the given scope.
type CreateTokenRequest struct {
	Scope token.Scope
}

// RevokeTokenRequest asks for an existing token to be revoked.
type RevokeTokenRequest struct {
	TokenID token.TokenID
}

func (CreateTokenRequest) manageRequest() {}
func (RevokeTokenRequest) manageRequest() {}

// ManageResult carries the outcome of a ManageRequest. TokenID is set only
// for a create.
type ManageResult struct {
	TokenID token.TokenID
}
