package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-service/auth"
	"github.com/jrsteele09/go-token-service/events"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/internal/utils"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	tokenfakerepo "github.com/jrsteele09/go-token-service/token/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserID  = token.UserID("user-1")
	otherUserID = token.UserID("user-2")
)

// testFixture holds all test dependencies
type testFixture struct {
	repo        *tokenfakerepo.FakeTokenRepo
	broadcaster *events.Broadcaster
	grants      <-chan events.GrantEvent
	service     *auth.TokenService
}

func setupTestFixture(t *testing.T, options ...auth.TokenServiceOption) *testFixture {
	t.Helper()

	repo := tokenfakerepo.NewFakeTokenRepo()
	broadcaster := events.NewBroadcaster()
	grants, cancel := broadcaster.Subscribe()
	t.Cleanup(cancel)

	service, err := auth.NewTokenService(repo, broadcaster, options...)
	require.NoError(t, err)

	return &testFixture{
		repo:        repo,
		broadcaster: broadcaster,
		grants:      grants,
		service:     service,
	}
}

func caller(t *testing.T, userID token.UserID, scopes ...token.ScopeToken) auth.Caller {
	t.Helper()
	return auth.Caller{UserID: userID, Scope: mustScope(t, scopes...)}
}

func (f *testFixture) createToken(t *testing.T, owner token.UserID, scopes ...token.ScopeToken) token.TokenID {
	t.Helper()
	id, err := f.service.Create(context.Background(), caller(t, owner, scopes...), mustScope(t, scopes...))
	require.NoError(t, err)
	return id
}

func (f *testFixture) drainEvents(t *testing.T) []events.GrantEvent {
	t.Helper()
	var out []events.GrantEvent
	for {
		select {
		case e := <-f.grants:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestNewTokenServiceRequiresDependencies(t *testing.T) {
	_, err := auth.NewTokenService(nil, events.NewBroadcaster())
	require.Error(t, err)

	_, err = auth.NewTokenService(tokenfakerepo.NewFakeTokenRepo(), nil)
	require.Error(t, err)
}

func TestCreateWithinGrantedScope(t *testing.T) {
	f := setupTestFixture(t)

	id, err := f.service.Create(context.Background(), caller(t, testUserID, "read", "write"), mustScope(t, "write"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := f.repo.InMemoryRepo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, testUserID, utils.Value(stored.Details.UserID))
	require.Equal(t, "write", stored.Details.Scope.String())
	require.Equal(t, token.GrantTypeBearer, stored.Details.GrantType)
	require.Nil(t, stored.Details.ExpiresAt)

	published := f.drainEvents(t)
	require.Len(t, published, 1)
	require.Equal(t, events.TokenGranted, published[0].Kind)
	require.Equal(t, id, published[0].TokenID)
	require.Equal(t, testUserID, published[0].UserID)
}

func TestCreateExceedingGrantedScopeIsDenied(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Create(context.Background(), caller(t, testUserID, "read"), mustScope(t, "read", "admin"))
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// No token stored, no event published.
	require.Equal(t, 0, f.repo.Creates)
	_, total, err := f.repo.InMemoryRepo.List(context.Background(), nil, pagination.DefaultPageSize, 1)
	require.NoError(t, err)
	require.Equal(t, 0, total)
	require.Empty(t, f.drainEvents(t))
}

func TestCreateEmptyScopeIsValidationError(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Create(context.Background(), caller(t, testUserID, "read"), token.Scope{})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, 0, f.repo.Creates)
}

func TestCreateStorageFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.CreateErr = apperrors.ErrStorageUnavailable

	_, err := f.service.Create(context.Background(), caller(t, testUserID, "read"), mustScope(t, "read"))
	require.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	require.Empty(t, f.drainEvents(t))
}

func TestDisplayOwnToken(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, testUserID, "read")

	page, err := f.service.Display(context.Background(), caller(t, testUserID, "read"), id)
	require.NoError(t, err)
	require.Len(t, page.Tokens, 1)
	require.Equal(t, id, page.Tokens[0].ID)
	require.Equal(t, 1, page.Total)
	require.Equal(t, pagination.Page(1), page.Page)
}

func TestDisplayForeignTokenLooksAbsent(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, otherUserID, "read")

	_, err := f.service.Display(context.Background(), caller(t, testUserID, "read"), id)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, unknownErr := f.service.Display(context.Background(), caller(t, testUserID, "read"), "no-such-token")
	require.ErrorIs(t, unknownErr, apperrors.ErrNotFound)
}

func TestDisplayRevokedTokenStillVisibleToOwner(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, testUserID, "read")

	require.NoError(t, f.service.Revoke(context.Background(), caller(t, testUserID, "read"), id))

	page, err := f.service.Display(context.Background(), caller(t, testUserID, "read"), id)
	require.NoError(t, err)
	require.False(t, page.Tokens[0].Details.Active)
}

func TestListDefaultsToFirstPageAndScopesToCaller(t *testing.T) {
	f := setupTestFixture(t, auth.WithPageSize(2))

	first := f.createToken(t, testUserID, "read")
	second := f.createToken(t, testUserID, "write")
	third := f.createToken(t, testUserID, "admin")
	f.createToken(t, otherUserID, "read")

	page, err := f.service.List(context.Background(), caller(t, testUserID, "read"), nil)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Tokens, 2)
	require.Equal(t, first, page.Tokens[0].ID)
	require.Equal(t, second, page.Tokens[1].ID)

	last, err := f.service.List(context.Background(), caller(t, testUserID, "read"), utils.Ptr(pagination.Page(2)))
	require.NoError(t, err)
	require.Equal(t, 3, last.Total)
	require.Len(t, last.Tokens, 1)
	require.Equal(t, third, last.Tokens[0].ID)

	empty, err := f.service.List(context.Background(), caller(t, testUserID, "read"), utils.Ptr(pagination.Page(3)))
	require.NoError(t, err)
	require.Equal(t, 3, empty.Total)
	require.Empty(t, empty.Tokens)
}

func TestRevokeOwnToken(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, testUserID, "read")
	f.drainEvents(t)

	require.NoError(t, f.service.Revoke(context.Background(), caller(t, testUserID, "read"), id))

	stored, err := f.repo.InMemoryRepo.Get(context.Background(), id)
	require.NoError(t, err)
	require.False(t, stored.Details.Active)

	published := f.drainEvents(t)
	require.Len(t, published, 1)
	require.Equal(t, events.TokenRevoked, published[0].Kind)
	require.Equal(t, id, published[0].TokenID)
}

func TestRevokeIsIdempotentForTheOwner(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, testUserID, "read")

	require.NoError(t, f.service.Revoke(context.Background(), caller(t, testUserID, "read"), id))
	require.NoError(t, f.service.Revoke(context.Background(), caller(t, testUserID, "read"), id))

	stored, err := f.repo.InMemoryRepo.Get(context.Background(), id)
	require.NoError(t, err)
	require.False(t, stored.Details.Active)
}

func TestRevokeUnknownTokenIsValidationError(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.Revoke(context.Background(), caller(t, testUserID, "read"), "no-such-token")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Equal(t, 0, f.repo.Revokes)
}

func TestRevokeForeignTokenIsValidationErrorAndDoesNotRevoke(t *testing.T) {
	f := setupTestFixture(t)
	id := f.createToken(t, otherUserID, "read")

	err := f.service.Revoke(context.Background(), caller(t, testUserID, "read"), id)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.NotErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, 0, f.repo.Revokes)

	stored, getErr := f.repo.InMemoryRepo.Get(context.Background(), id)
	require.NoError(t, getErr)
	require.True(t, stored.Details.Active)
}

func TestManageDispatch(t *testing.T) {
	f := setupTestFixture(t)

	result, err := f.service.Manage(context.Background(), caller(t, testUserID, "read"), auth.CreateTokenRequest{Scope: mustScope(t, "read")})
	require.NoError(t, err)
	require.NotEmpty(t, result.TokenID)

	result, err = f.service.Manage(context.Background(), caller(t, testUserID, "read"), auth.RevokeTokenRequest{TokenID: result.TokenID})
	require.NoError(t, err)
	require.Empty(t, result.TokenID)

	_, err = f.service.Manage(context.Background(), caller(t, testUserID, "read"), nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEventTimestampsUseInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := setupTestFixture(t, auth.WithNowTime(func() time.Time { return now }))

	f.createToken(t, testUserID, "read")

	published := f.drainEvents(t)
	require.Len(t, published, 1)
	require.Equal(t, now, published[0].At)
}
