package tokenfakerepo

import (
	"context"

	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

// FakeTokenRepo wraps the in-memory store and lets tests inject storage
// failures per operation.
type FakeTokenRepo struct {
	*token.InMemoryRepo

	CreateErr error
	GetErr    error
	RevokeErr error
	ListErr   error
	StatsErr  error

	Creates int
	Gets    int
	Revokes int
	Lists   int
}

func NewFakeTokenRepo(options ...token.InMemoryRepoOption) *FakeTokenRepo {
	return &FakeTokenRepo{InMemoryRepo: token.NewInMemoryRepo(options...)}
}

func (r *FakeTokenRepo) Create(ctx context.Context, grant token.TokenGrant, clientSecret []byte) (*token.IssuedToken, error) {
	r.Creates++
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	return r.InMemoryRepo.Create(ctx, grant, clientSecret)
}

func (r *FakeTokenRepo) Get(ctx context.Context, id token.TokenID) (*token.IssuedToken, error) {
	r.Gets++
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	return r.InMemoryRepo.Get(ctx, id)
}

func (r *FakeTokenRepo) Revoke(ctx context.Context, id token.TokenID) error {
	r.Revokes++
	if r.RevokeErr != nil {
		return r.RevokeErr
	}
	return r.InMemoryRepo.Revoke(ctx, id)
}

func (r *FakeTokenRepo) List(ctx context.Context, owner *token.UserID, size pagination.PageSize, page pagination.Page) ([]token.IssuedToken, int, error) {
	r.Lists++
	if r.ListErr != nil {
		return nil, 0, r.ListErr
	}
	return r.InMemoryRepo.List(ctx, owner, size, page)
}

func (r *FakeTokenRepo) Stats(ctx context.Context) (*token.StoreStats, error) {
	if r.StatsErr != nil {
		return nil, r.StatsErr
	}
	return r.InMemoryRepo.Stats(ctx)
}
