package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-token-service/events"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/internal/utils"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenPage is one window of a caller's tokens plus the total count needed
// to render pagination controls.
type TokenPage struct {
	Tokens   []token.IssuedToken
	Page     pagination.Page
	PageSize pagination.PageSize
	Total    int
}

// TokenService orchestrates the token lifecycle: create, list, display and
// revoke. It is stateless across requests; all state lives in the storage
// capability. Ownership checks happen here, never in the backends.
type TokenService struct {
	repo        token.Repo
	broadcaster *events.Broadcaster
	pageSize    pagination.PageSize
	logger      zerolog.Logger
	nowTime     func() time.Time
}

// TokenServiceOption defines a function type to modify the TokenService instance.
type TokenServiceOption func(*TokenService)

// WithPageSize sets the listing window size.
func WithPageSize(size pagination.PageSize) TokenServiceOption {
	return func(s *TokenService) {
		s.pageSize = size
	}
}

// WithLogger sets the audit/log sink.
func WithLogger(logger zerolog.Logger) TokenServiceOption {
	return func(s *TokenService) {
		s.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		s.nowTime = nowFunc
	}
}

// NewTokenService initializes a TokenService with required dependencies.
func NewTokenService(repo token.Repo, broadcaster *events.Broadcaster, options ...TokenServiceOption) (*TokenService, error) {
	if repo == nil {
		return nil, errors.New("[NewTokenService] token repo is required")
	}
	if broadcaster == nil {
		return nil, errors.New("[NewTokenService] event broadcaster is required")
	}

	s := &TokenService{
		repo:        repo,
		broadcaster: broadcaster,
		pageSize:    pagination.DefaultPageSize,
		logger:      log.Logger,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Display returns the single-item, single-page view of one of the caller's
// tokens. A token that does not exist and a token owned by someone else are
// indistinguishable to the caller, so token IDs cannot be enumerated.
func (s *TokenService) Display(ctx context.Context, caller Caller, id token.TokenID) (*TokenPage, error) {
	issued, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenService.Display] repo.Get")
	}
	if issued == nil || !BelongsToUser(issued.Details, caller.UserID) {
		return nil, apperrors.ErrNotFound
	}

	return &TokenPage{
		Tokens:   []token.IssuedToken{*issued},
		Page:     pagination.Page(1),
		PageSize: s.pageSize,
		Total:    1,
	}, nil
}

// List returns one window of the caller's own tokens. A nil page means the
// first page. There is no path to list another user's tokens.
func (s *TokenService) List(ctx context.Context, caller Caller, page *pagination.Page) (*TokenPage, error) {
	p := pagination.Page(1)
	if page != nil {
		p = *page
	}

	owner := caller.UserID
	window, total, err := s.repo.List(ctx, &owner, s.pageSize, p)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenService.List] repo.List")
	}

	return &TokenPage{
		Tokens:   window,
		Page:     p,
		PageSize: s.pageSize,
		Total:    total,
	}, nil
}

// Create issues a new Bearer token owned by the caller, bounded by the
// caller's own granted scope. On success exactly one grant event is
// published.
func (s *TokenService) Create(ctx context.Context, caller Caller, requested token.Scope) (token.TokenID, error) {
	if requested.Len() == 0 {
		return "", apperrors.Wrapf(apperrors.ErrValidation, "[TokenService.Create] empty requested scope")
	}
	if !ScopeCompatible(requested, caller.Scope) {
		return "", apperrors.Wrapf(apperrors.ErrPermissionDenied, "[TokenService.Create] requested scope exceeds granted scope")
	}

	grant := token.TokenGrant{
		GrantType: token.GrantTypeBearer,
		UserID:    utils.Ptr(caller.UserID),
		Scope:     requested,
	}
	issued, err := s.repo.Create(ctx, grant, nil)
	if err != nil {
		return "", errors.Wrap(err, "[TokenService.Create] repo.Create")
	}

	s.broadcaster.Publish(events.GrantEvent{
		Kind:    events.TokenGranted,
		TokenID: issued.ID,
		UserID:  caller.UserID,
		Scope:   requested,
		At:      s.nowTime(),
	})

	return issued.ID, nil
}

// Revoke marks one of the caller's tokens inactive. Revoking an unknown
// token is a validation failure, as is revoking someone else's token; the
// ownership mismatch is logged with the real owner for audit but the caller
// only ever sees the generic failure.
func (s *TokenService) Revoke(ctx context.Context, caller Caller, id token.TokenID) error {
	issued, err := s.repo.Get(ctx, id)
	if err != nil {
		return errors.Wrap(err, "[TokenService.Revoke] repo.Get")
	}
	if issued == nil {
		return apperrors.Wrapf(apperrors.ErrValidation, "[TokenService.Revoke] nothing to revoke")
	}

	if !BelongsToUser(issued.Details, caller.UserID) {
		s.logger.Warn().
			Str("caller", string(caller.UserID)).
			Str("token_id", string(id)).
			Str("owner", string(utils.Value(issued.Details.UserID))).
			Msg("revoke denied: token owned by another user")
		return apperrors.ErrValidation
	}

	if err := s.repo.Revoke(ctx, id); err != nil {
		return errors.Wrap(err, "[TokenService.Revoke] repo.Revoke")
	}

	s.broadcaster.Publish(events.GrantEvent{
		Kind:    events.TokenRevoked,
		TokenID: id,
		UserID:  caller.UserID,
		Scope:   issued.Details.Scope,
		At:      s.nowTime(),
	})

	return nil
}

// Manage dispatches a tagged management request to the matching operation.
func (s *TokenService) Manage(ctx context.Context, caller Caller, req ManageRequest) (*ManageResult, error) {
	switch req := req.(type) {
	case CreateTokenRequest:
		id, err := s.Create(ctx, caller, req.Scope)
		if err != nil {
			return nil, err
		}
		return &ManageResult{TokenID: id}, nil
	case RevokeTokenRequest:
		if err := s.Revoke(ctx, caller, req.TokenID); err != nil {
			return nil, err
		}
		return &ManageResult{}, nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrValidation, "[TokenService.Manage] unknown request variant %T", req)
	}
}
