// Package token defines the token domain model and the storage capability
// used by the lifecycle service and by the grant-protocol endpoints.
package token

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserID identifies an authenticated principal. Opaque once parsed from an
// identity assertion.
type UserID string

// ClientID identifies an OAuth2 client application.
type ClientID string

// TokenID is the storage-assigned, globally unique identifier of an issued
// token. Never client-supplied on create and never reused after revocation.
type TokenID string

type GrantType string

const (
	// GrantTypeBearer is the only grant type currently issued.
	GrantTypeBearer GrantType = "Bearer"
)

// TokenGrant is the requested shape of a token before issuance. Exactly one
// of UserID / ClientID is expected to be set per issuance path.
type TokenGrant struct {
	GrantType GrantType
	ExpiresAt *time.Time
	UserID    *UserID
	ClientID  *ClientID
	Scope     Scope
}

// TokenDetails is the stored record for an issued token: the grant fields
// plus storage-assigned metadata. Immutable except for the one-way
// revocation transition on Active.
type TokenDetails struct {
	GrantType  GrantType
	ExpiresAt  *time.Time
	UserID     *UserID
	ClientID   *ClientID
	Scope      Scope
	SecretHash []byte
	CreatedAt  time.Time
	Active     bool
}

// IssuedToken pairs a token with its storage-assigned identifier.
type IssuedToken struct {
	ID      TokenID
	Details TokenDetails
}

// StoreStats is an opaque snapshot of storage counters, used by health
// checks to prove the backend is reachable and consistent.
type StoreStats struct {
	Backend string
	Total   int
	Active  int
	Revoked int
}

// HashClientSecret hashes a client secret for at-rest storage. Backends call
// this before persisting; the plaintext secret is never stored.
func HashClientSecret(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
}

// CheckClientSecret compares a presented secret with a stored hash.
func CheckClientSecret(secret, hash []byte) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}
