// Package postgresrepo persists tokens in PostgreSQL.
package postgresrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	_ "github.com/lib/pq"
)

var _ token.Repo = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New connects to the database described by the connection string and runs
// migrations.
func New(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.New open: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.New ping: %v", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.New migrate: %v", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		grant_type TEXT NOT NULL,
		scope TEXT NOT NULL,
		user_id TEXT,
		client_id TEXT,
		secret_hash BYTEA,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id)`)
	return err
}

func (s *Store) Create(ctx context.Context, grant token.TokenGrant, clientSecret []byte) (*token.IssuedToken, error) {
	secretHash, err := token.HashClientSecret(clientSecret)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.Create hash secret: %v", err)
	}

	id := token.TokenID(uuid.New().String())
	createdAt := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tokens (id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)`,
		string(id), string(grant.GrantType), grant.Scope.String(),
		nullableUserID(grant.UserID), nullableClientID(grant.ClientID),
		secretHash, createdAt, grant.ExpiresAt)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.Create insert: %v", err)
	}

	return &token.IssuedToken{
		ID: id,
		Details: token.TokenDetails{
			GrantType:  grant.GrantType,
			ExpiresAt:  grant.ExpiresAt,
			UserID:     grant.UserID,
			ClientID:   grant.ClientID,
			Scope:      grant.Scope,
			SecretHash: secretHash,
			CreatedAt:  createdAt,
			Active:     true,
		},
	}, nil
}

func (s *Store) Get(ctx context.Context, id token.TokenID) (*token.IssuedToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active
		 FROM tokens WHERE id = $1`, string(id))

	issued, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.Get: %v", err)
	}
	return issued, nil
}

func (s *Store) Revoke(ctx context.Context, id token.TokenID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tokens SET active = FALSE WHERE id = $1`, string(id)); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.Revoke: %v", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner *token.UserID, size pagination.PageSize, page pagination.Page) ([]token.IssuedToken, int, error) {
	var (
		total int
		rows  *sql.Rows
		err   error
	)

	if owner != nil {
		if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens WHERE user_id = $1`, string(*owner)).Scan(&total); err != nil {
			return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.List count: %v", err)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active
			 FROM tokens WHERE user_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`,
			string(*owner), int(size), page.Offset(size))
	} else {
		if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&total); err != nil {
			return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.List count: %v", err)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active
			 FROM tokens ORDER BY seq LIMIT $1 OFFSET $2`,
			int(size), page.Offset(size))
	}
	if err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.List query: %v", err)
	}
	defer rows.Close()

	var out []token.IssuedToken
	for rows.Next() {
		issued, err := scanToken(rows)
		if err != nil {
			return nil, 0, apperrors.Wrapf(apperrors.ErrStorageInvariant, "postgresrepo.List scan: %v", err)
		}
		out = append(out, *issued)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.List rows: %v", err)
	}
	return out, total, nil
}

func (s *Store) Stats(ctx context.Context) (*token.StoreStats, error) {
	stats := &token.StoreStats{Backend: "postgres"}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM tokens`).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "postgresrepo.Stats: %v", err)
	}
	stats.Revoked = stats.Total - stats.Active
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*token.IssuedToken, error) {
	var (
		id, grantType, scopeText string
		userID, clientID         sql.NullString
		secretHash               []byte
		createdAt                time.Time
		expiresAt                sql.NullTime
		active                   bool
	)
	if err := row.Scan(&id, &grantType, &scopeText, &userID, &clientID, &secretHash, &createdAt, &expiresAt, &active); err != nil {
		return nil, err
	}

	scope, err := token.ParseScope(scopeText)
	if err != nil {
		return nil, err
	}

	details := token.TokenDetails{
		GrantType:  token.GrantType(grantType),
		Scope:      scope,
		SecretHash: secretHash,
		CreatedAt:  createdAt.UTC(),
		Active:     active,
	}
	if userID.Valid {
		uid := token.UserID(userID.String)
		details.UserID = &uid
	}
	if clientID.Valid {
		cid := token.ClientID(clientID.String)
		details.ClientID = &cid
	}
	if expiresAt.Valid {
		exp := expiresAt.Time.UTC()
		details.ExpiresAt = &exp
	}

	return &token.IssuedToken{ID: token.TokenID(id), Details: details}, nil
}

func nullableUserID(id *token.UserID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullableClientID(id *token.ClientID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}
