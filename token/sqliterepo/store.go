// Package sqliterepo persists tokens in SQLite, suitable for single-node
// deployments.
package sqliterepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	_ "modernc.org/sqlite"
)

var _ token.Repo = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.New open: %v", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.New migrate: %v", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			id TEXT PRIMARY KEY,
			grant_type TEXT NOT NULL,
			scope TEXT NOT NULL,
			user_id TEXT,
			client_id TEXT,
			secret_hash BLOB,
			created_at INTEGER NOT NULL,
			expires_at INTEGER,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, grant token.TokenGrant, clientSecret []byte) (*token.IssuedToken, error) {
	secretHash, err := token.HashClientSecret(clientSecret)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.Create hash secret: %v", err)
	}

	id := token.TokenID(uuid.New().String())
	createdAt := time.Now().UTC()

	var expiresAt *int64
	if grant.ExpiresAt != nil {
		unix := grant.ExpiresAt.UnixNano()
		expiresAt = &unix
	}

	// Plain INSERT: a colliding TokenID fails on the primary key instead of
	// overwriting an existing record.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tokens (id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(id), string(grant.GrantType), grant.Scope.String(),
		nullableID(grant.UserID), nullableClientID(grant.ClientID),
		secretHash, createdAt.UnixNano(), expiresAt)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.Create insert: %v", err)
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
		 FROM tokens WHERE id = ?`, string(id))

	issued, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.Get: %v", err)
	}
	return issued, nil
}

func (s *Store) Revoke(ctx context.Context, id token.TokenID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tokens SET active = 0 WHERE id = ?`, string(id)); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.Revoke: %v", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner *token.UserID, size pagination.PageSize, page pagination.Page) ([]token.IssuedToken, int, error) {
	countQuery := `SELECT COUNT(*) FROM tokens`
	listQuery := `SELECT id, grant_type, scope, user_id, client_id, secret_hash, created_at, expires_at, active
		FROM tokens`
	args := []any{}
	if owner != nil {
		countQuery += ` WHERE user_id = ?`
		listQuery += ` WHERE user_id = ?`
		args = append(args, string(*owner))
	}
	// rowid preserves insertion order even when two tokens share a timestamp.
	listQuery += ` ORDER BY rowid LIMIT ? OFFSET ?`

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.List count: %v", err)
	}

	rows, err := s.db.QueryContext(ctx, listQuery, append(args, int(size), page.Offset(size))...)
	if err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.List query: %v", err)
	}
	defer rows.Close()

	var out []token.IssuedToken
	for rows.Next() {
		issued, err := scanToken(rows)
		if err != nil {
			return nil, 0, apperrors.Wrapf(apperrors.ErrStorageInvariant, "sqliterepo.List scan: %v", err)
		}
		out = append(out, *issued)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.List rows: %v", err)
	}
	return out, total, nil
}

func (s *Store) Stats(ctx context.Context) (*token.StoreStats, error) {
	stats := &token.StoreStats{Backend: "sqlite"}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(active), 0) FROM tokens`).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "sqliterepo.Stats: %v", err)
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
		createdAt                int64
		expiresAt                sql.NullInt64
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
		CreatedAt:  time.Unix(0, createdAt).UTC(),
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
		exp := time.Unix(0, expiresAt.Int64).UTC()
		details.ExpiresAt = &exp
	}

	return &token.IssuedToken{ID: token.TokenID(id), Details: details}, nil
}

func nullableID(id *token.UserID) any {
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
