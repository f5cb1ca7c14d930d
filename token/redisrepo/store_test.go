package redisrepo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-token-service/internal/utils"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/jrsteele09/go-token-service/token/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testUserID = token.UserID("user-1")

func setupStore(t *testing.T) *redisrepo.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisrepo.NewWithClient(client)
}

func grant(t *testing.T, owner token.UserID, scopes ...token.ScopeToken) token.TokenGrant {
	t.Helper()
	s, err := token.NewScope(scopes...)
	require.NoError(t, err)
	return token.TokenGrant{
		GrantType: token.GrantTypeBearer,
		UserID:    utils.Ptr(owner),
		Scope:     s,
	}
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	issued, err := store.Create(ctx, grant(t, testUserID, "read", "write"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	got, err := store.Get(ctx, issued.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "read write", got.Details.Scope.String())
	require.Equal(t, testUserID, utils.Value(got.Details.UserID))
	require.True(t, got.Details.Active)
	require.Equal(t, issued.Details.CreatedAt, got.Details.CreatedAt)
}

func TestGetUnknownReturnsNil(t *testing.T) {
	store := setupStore(t)

	got, err := store.Get(context.Background(), "no-such-token")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	issued, err := store.Create(ctx, grant(t, testUserID, "read"), nil)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, issued.ID))
	require.NoError(t, store.Revoke(ctx, issued.ID))
	require.NoError(t, store.Revoke(ctx, "unknown"))

	got, err := store.Get(ctx, issued.ID)
	require.NoError(t, err)
	require.False(t, got.Details.Active)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 0, stats.Active)
	require.Equal(t, 1, stats.Revoked)
}

func TestConcurrentRevokeKeepsStatsConsistent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	var target token.TokenID
	for _, sc := range []token.ScopeToken{"one", "two", "three", "four", "five", "six"} {
		issued, err := store.Create(ctx, grant(t, testUserID, sc), nil)
		require.NoError(t, err)
		target = issued.ID
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, store.Revoke(ctx, target))
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, target)
	require.NoError(t, err)
	require.False(t, got.Details.Active)

	// The active counter must move exactly once however many revokes raced.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, stats.Total)
	require.Equal(t, 5, stats.Active)
	require.Equal(t, 1, stats.Revoked)
}

func TestListPaginatesPerOwner(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	created := make([]token.TokenID, 0, 5)
	for _, sc := range []token.ScopeToken{"one", "two", "three", "four", "five"} {
		issued, err := store.Create(ctx, grant(t, testUserID, sc), nil)
		require.NoError(t, err)
		created = append(created, issued.ID)
	}
	_, err := store.Create(ctx, grant(t, "user-2", "read"), nil)
	require.NoError(t, err)

	seen := make(map[token.TokenID]bool)
	for p := pagination.Page(1); p <= 3; p++ {
		window, total, err := store.List(ctx, utils.Ptr(testUserID), pagination.PageSize(2), p)
		require.NoError(t, err)
		require.Equal(t, 5, total)
		require.LessOrEqual(t, len(window), 2)
		for _, issued := range window {
			require.False(t, seen[issued.ID], "token listed twice")
			seen[issued.ID] = true
			require.Equal(t, testUserID, utils.Value(issued.Details.UserID))
		}
	}
	require.Len(t, seen, 5)
	for _, id := range created {
		require.True(t, seen[id])
	}

	window, total, err := store.List(ctx, utils.Ptr(testUserID), pagination.PageSize(2), pagination.Page(4))
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Empty(t, window)
}

func TestStatsOnEmptyStore(t *testing.T) {
	store := setupStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, "redis", stats.Backend)
	require.Equal(t, 0, stats.Total)
	require.Equal(t, 0, stats.Active)
}

func TestClientSecretStoredHashed(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	secret := []byte("client-secret-1")
	issued, err := store.Create(ctx, grant(t, testUserID, "read"), secret)
	require.NoError(t, err)

	got, err := store.Get(ctx, issued.ID)
	require.NoError(t, err)
	require.NotEqual(t, secret, got.Details.SecretHash)
	require.True(t, token.CheckClientSecret(secret, got.Details.SecretHash))
}
