package token

import (
	"context"

	"github.com/jrsteele09/go-token-service/pagination"
)

// Repo is the token storage capability. All operations are atomic with
// respect to each other; once Create has returned, Get on the same TokenID
// sees the created record from any caller.
//
// Ownership filtering is deliberately not done here (except where List is
// given an owner): authorization is the lifecycle service's responsibility,
// which keeps backends simple and swappable.
type Repo interface {
	// Create assigns a fresh TokenID, persists the grant and returns the
	// issued token. An existing TokenID is never silently overwritten.
	// clientSecret, when non-nil, is stored as a bcrypt hash.
	Create(ctx context.Context, grant TokenGrant, clientSecret []byte) (*IssuedToken, error)

	// Get returns (nil, nil) when the TokenID is unknown.
	Get(ctx context.Context, id TokenID) (*IssuedToken, error)

	// Revoke marks the token inactive. Unknown TokenIDs are a no-op so that
	// revocation stays idempotent at the storage layer.
	Revoke(ctx context.Context, id TokenID) error

	// List returns the (page, size) window in stable creation order,
	// filtered to owner when non-nil, plus the total matching count.
	List(ctx context.Context, owner *UserID, size pagination.PageSize, page pagination.Page) ([]IssuedToken, int, error)

	// Stats returns a snapshot sufficient to prove liveness and consistency.
	Stats(ctx context.Context) (*StoreStats, error)
}
