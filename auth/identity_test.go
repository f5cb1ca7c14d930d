package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-token-service/auth"
	"github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/internal/utils"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentity(t *testing.T) {
	caller, err := auth.ExtractIdentity(utils.Ptr("user-1"), utils.Ptr("read write"))
	require.NoError(t, err)
	require.Equal(t, token.UserID("user-1"), caller.UserID)
	require.Equal(t, "read write", caller.Scope.String())
}

func TestExtractIdentityMissingUser(t *testing.T) {
	_, err := auth.ExtractIdentity(nil, utils.Ptr("read"))
	require.ErrorIs(t, err, errors.ErrMissingIdentity)
}

func TestExtractIdentityMissingScope(t *testing.T) {
	_, err := auth.ExtractIdentity(utils.Ptr("user-1"), nil)
	require.ErrorIs(t, err, errors.ErrMissingScope)
}

func TestExtractIdentityMalformedUser(t *testing.T) {
	_, err := auth.ExtractIdentity(utils.Ptr("   "), utils.Ptr("read"))
	require.ErrorIs(t, err, errors.ErrMalformedIdentity)

	_, err = auth.ExtractIdentity(utils.Ptr("user 1"), utils.Ptr("read"))
	require.ErrorIs(t, err, errors.ErrMalformedIdentity)
}

func TestExtractIdentityMalformedScope(t *testing.T) {
	_, err := auth.ExtractIdentity(utils.Ptr("user-1"), utils.Ptr("   "))
	require.ErrorIs(t, err, errors.ErrMalformedScope)
}
