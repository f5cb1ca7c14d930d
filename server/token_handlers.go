package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-token-service/auth"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/rs/zerolog/log"
)

// TokenView is the rendering-layer shape of one issued token.
type TokenView struct {
	TokenID   string     `json:"token_id"`
	GrantType string     `json:"grant_type"`
	Scope     string     `json:"scope"`
	UserID    string     `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
}

// TokenPageView is one window of tokens plus pagination data.
type TokenPageView struct {
	Tokens   []TokenView `json:"tokens"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int         `json:"total"`
}

// CreatedView is the response to a successful create.
type CreatedView struct {
	TokenID string `json:"token_id"`
}

// ListTokensHandler returns one page of the caller's tokens.
func (s *Server) ListTokensHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromContext(r.Context())
		if !ok {
			writeError(w, apperrors.ErrMissingIdentity)
			return
		}

		var page *pagination.Page
		if raw := r.URL.Query().Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, apperrors.ErrInvalidPage)
				return
			}
			p, err := pagination.NewPage(n)
			if err != nil {
				writeError(w, err)
				return
			}
			page = &p
		}

		result, err := s.tokens.List(r.Context(), caller, page)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pageView(result))
	}
}

// DisplayTokenHandler returns the single-token view of one of the caller's
// tokens.
func (s *Server) DisplayTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromContext(r.Context())
		if !ok {
			writeError(w, apperrors.ErrMissingIdentity)
			return
		}

		result, err := s.tokens.Display(r.Context(), caller, token.TokenID(r.PathValue("id")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pageView(result))
	}
}

// ManageTokensHandler handles the form-posted create/delete request. The
// stringly "method" field is converted to a tagged request here at the
// transport edge; everything past this point dispatches on the variant.
func (s *Server) ManageTokensHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromContext(r.Context())
		if !ok {
			writeError(w, apperrors.ErrMissingIdentity)
			return
		}

		if err := r.ParseForm(); err != nil {
			writeError(w, apperrors.ErrValidation)
			return
		}

		req, err := parseManageRequest(r.PostForm.Get("method"), r.PostForm.Get("scope"), r.PostForm.Get("token_id"))
		if err != nil {
			writeError(w, err)
			return
		}

		result, err := s.tokens.Manage(r.Context(), caller, req)
		if err != nil {
			writeError(w, err)
			return
		}

		switch req.(type) {
		case auth.CreateTokenRequest:
			writeJSON(w, http.StatusCreated, CreatedView{TokenID: string(result.TokenID)})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// HealthHandler proves the storage backend is reachable and consistent.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.repo.Stats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"backend": stats.Backend,
			"tokens":  stats.Total,
			"active":  stats.Active,
		})
	}
}

func parseManageRequest(method, scopeText, tokenID string) (auth.ManageRequest, error) {
	switch method {
	case "create":
		scope, err := token.ParseScope(scopeText)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrValidation, "manage request scope: %v", err)
		}
		return auth.CreateTokenRequest{Scope: scope}, nil
	case "delete":
		if tokenID == "" {
			return nil, apperrors.Wrapf(apperrors.ErrValidation, "manage request missing token_id")
		}
		return auth.RevokeTokenRequest{TokenID: token.TokenID(tokenID)}, nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrValidation, "manage request unknown method %q", method)
	}
}

func pageView(page *auth.TokenPage) TokenPageView {
	views := make([]TokenView, 0, len(page.Tokens))
	for _, issued := range page.Tokens {
		view := TokenView{
			TokenID:   string(issued.ID),
			GrantType: string(issued.Details.GrantType),
			Scope:     issued.Details.Scope.String(),
			CreatedAt: issued.Details.CreatedAt,
			ExpiresAt: issued.Details.ExpiresAt,
			Active:    issued.Details.Active,
		}
		if issued.Details.UserID != nil {
			view.UserID = string(*issued.Details.UserID)
		}
		views = append(views, view)
	}
	return TokenPageView{
		Tokens:   views,
		Page:     int(page.Page),
		PageSize: int(page.PageSize),
		Total:    page.Total,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its client-facing kind. Internal detail never
// reaches the response body; it is logged here instead.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case apperrors.Is(err, apperrors.ErrMissingIdentity),
		apperrors.Is(err, apperrors.ErrMissingScope),
		apperrors.Is(err, apperrors.ErrMalformedIdentity),
		apperrors.Is(err, apperrors.ErrMalformedScope):
		status, code = http.StatusUnauthorized, "unauthorized"
	case apperrors.Is(err, apperrors.ErrInvalidPage),
		apperrors.Is(err, apperrors.ErrInvalidPageSize),
		apperrors.Is(err, apperrors.ErrValidation):
		status, code = http.StatusBadRequest, "invalid_request"
	case apperrors.Is(err, apperrors.ErrPermissionDenied):
		status, code = http.StatusForbidden, "permission_denied"
	case apperrors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case apperrors.Is(err, apperrors.ErrStorageUnavailable),
		apperrors.Is(err, apperrors.ErrStorageInvariant):
		status, code = http.StatusServiceUnavailable, "server_error"
	default:
		status, code = http.StatusInternalServerError, "server_error"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, map[string]string{"error": code})
}
