package token

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/pagination"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is the reference storage backend. Tokens are held in a map
// with a separate creation-order index so that listing stays stable.
type InMemoryRepo struct {
	mu      sync.RWMutex
	tokens  map[TokenID]*TokenDetails
	order   []TokenID
	nowFunc func() time.Time
	idFunc  func() TokenID
}

// InMemoryRepoOption modifies an InMemoryRepo instance.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowFunc = now
	}
}

// WithIDFunc sets the TokenID generator (primarily for testing).
func WithIDFunc(idFunc func() TokenID) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.idFunc = idFunc
	}
}

// NewInMemoryRepo creates an empty in-memory token store.
func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		tokens:  make(map[TokenID]*TokenDetails),
		nowFunc: time.Now,
		idFunc:  func() TokenID { return TokenID(uuid.New().String()) },
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(_ context.Context, grant TokenGrant, clientSecret []byte) (*IssuedToken, error) {
	secretHash, err := HashClientSecret(clientSecret)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "InMemoryRepo.Create hash secret: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.idFunc()
	if _, exists := r.tokens[id]; exists {
		return nil, errors.Wrapf(errors.ErrStorageInvariant, "InMemoryRepo.Create duplicate token ID %s", id)
	}

	details := &TokenDetails{
		GrantType:  grant.GrantType,
		ExpiresAt:  grant.ExpiresAt,
		UserID:     grant.UserID,
		ClientID:   grant.ClientID,
		Scope:      grant.Scope,
		SecretHash: secretHash,
		CreatedAt:  r.nowFunc(),
		Active:     true,
	}
	r.tokens[id] = details
	r.order = append(r.order, id)

	return &IssuedToken{ID: id, Details: *details}, nil
}

func (r *InMemoryRepo) Get(_ context.Context, id TokenID) (*IssuedToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	details, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	return &IssuedToken{ID: id, Details: *details}, nil
}

func (r *InMemoryRepo) Revoke(_ context.Context, id TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if details, ok := r.tokens[id]; ok {
		details.Active = false
	}
	return nil
}

func (r *InMemoryRepo) List(_ context.Context, owner *UserID, size pagination.PageSize, page pagination.Page) ([]IssuedToken, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matching := make([]IssuedToken, 0, len(r.order))
	for _, id := range r.order {
		details := r.tokens[id]
		if owner != nil && (details.UserID == nil || *details.UserID != *owner) {
			continue
		}
		matching = append(matching, IssuedToken{ID: id, Details: *details})
	}

	return pagination.Window(matching, page, size), len(matching), nil
}

func (r *InMemoryRepo) Stats(_ context.Context) (*StoreStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &StoreStats{Backend: "memory", Total: len(r.tokens)}
	for _, details := range r.tokens {
		if details.Active {
			stats.Active++
		} else {
			stats.Revoked++
		}
	}
	return stats, nil
}
