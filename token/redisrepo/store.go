// Package redisrepo persists tokens in Redis. Each token lives in a hash;
// sorted sets keep the global and per-user creation order for listing.
package redisrepo

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-token-service/internal/errors"
	"github.com/jrsteele09/go-token-service/pagination"
	"github.com/jrsteele09/go-token-service/token"
	"github.com/redis/go-redis/v9"
)

var _ token.Repo = (*Store)(nil)

const (
	tokenKeyPrefix = "token:"
	indexKey       = "tokens:index"
	userKeyPrefix  = "tokens:user:"
	activeCountKey = "tokens:active"
)

type Store struct {
	client *redis.Client
}

// New connects to the Redis instance at addr.
func New(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.New ping: %v", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func tokenKey(id token.TokenID) string {
	return tokenKeyPrefix + string(id)
}

func userKey(id token.UserID) string {
	return userKeyPrefix + string(id)
}

func (s *Store) Create(ctx context.Context, grant token.TokenGrant, clientSecret []byte) (*token.IssuedToken, error) {
	secretHash, err := token.HashClientSecret(clientSecret)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Create hash secret: %v", err)
	}

	id := token.TokenID(uuid.New().String())
	createdAt := time.Now().UTC()

	exists, err := s.client.Exists(ctx, tokenKey(id)).Result()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Create exists: %v", err)
	}
	if exists == 1 {
		return nil, apperrors.Wrapf(apperrors.ErrStorageInvariant, "redisrepo.Create duplicate token ID %s", id)
	}

	fields := map[string]any{
		"grant_type": string(grant.GrantType),
		"scope":      grant.Scope.String(),
		"created_at": createdAt.UnixNano(),
		"active":     1,
	}
	if grant.UserID != nil {
		fields["user_id"] = string(*grant.UserID)
	}
	if grant.ClientID != nil {
		fields["client_id"] = string(*grant.ClientID)
	}
	if len(secretHash) > 0 {
		fields["secret_hash"] = string(secretHash)
	}
	if grant.ExpiresAt != nil {
		fields["expires_at"] = grant.ExpiresAt.UnixNano()
	}

	member := redis.Z{Score: float64(createdAt.UnixNano()), Member: string(id)}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, tokenKey(id), fields)
	pipe.ZAdd(ctx, indexKey, member)
	if grant.UserID != nil {
		pipe.ZAdd(ctx, userKey(*grant.UserID), member)
	}
	pipe.Incr(ctx, activeCountKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Create pipeline: %v", err)
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
	fields, err := s.client.HGetAll(ctx, tokenKey(id)).Result()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Get: %v", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeToken(id, fields)
}

// revokeScript flips the active field and decrements the counter in one
// atomic step, so concurrent revokes of the same token decrement exactly
// once. Unknown or already-revoked tokens are a no-op.
var revokeScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "active") == "1" then
	redis.call("HSET", KEYS[1], "active", 0)
	redis.call("DECR", KEYS[2])
	return 1
end
return 0
`)

func (s *Store) Revoke(ctx context.Context, id token.TokenID) error {
	if err := revokeScript.Run(ctx, s.client, []string{tokenKey(id), activeCountKey}).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Revoke script: %v", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner *token.UserID, size pagination.PageSize, page pagination.Page) ([]token.IssuedToken, int, error) {
	key := indexKey
	if owner != nil {
		key = userKey(*owner)
	}

	total, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.List zcard: %v", err)
	}

	start := int64(page.Offset(size))
	stop := start + int64(size) - 1
	ids, err := s.client.ZRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, 0, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.List zrange: %v", err)
	}

	out := make([]token.IssuedToken, 0, len(ids))
	for _, rawID := range ids {
		id := token.TokenID(rawID)
		issued, err := s.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if issued == nil {
			return nil, 0, apperrors.Wrapf(apperrors.ErrStorageInvariant, "redisrepo.List indexed token %s has no record", id)
		}
		out = append(out, *issued)
	}
	return out, int(total), nil
}

func (s *Store) Stats(ctx context.Context) (*token.StoreStats, error) {
	total, err := s.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Stats zcard: %v", err)
	}
	active, err := s.client.Get(ctx, activeCountKey).Int()
	if err != nil && err != redis.Nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageUnavailable, "redisrepo.Stats active: %v", err)
	}

	return &token.StoreStats{
		Backend: "redis",
		Total:   int(total),
		Active:  active,
		Revoked: int(total) - active,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func decodeToken(id token.TokenID, fields map[string]string) (*token.IssuedToken, error) {
	scope, err := token.ParseScope(fields["scope"])
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageInvariant, "redisrepo token %s scope: %v", id, err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorageInvariant, "redisrepo token %s created_at: %v", id, err)
	}

	details := token.TokenDetails{
		GrantType: token.GrantType(fields["grant_type"]),
		Scope:     scope,
		CreatedAt: time.Unix(0, createdAt).UTC(),
		Active:    fields["active"] == "1",
	}
	if v, ok := fields["user_id"]; ok {
		uid := token.UserID(v)
		details.UserID = &uid
	}
	if v, ok := fields["client_id"]; ok {
		cid := token.ClientID(v)
		details.ClientID = &cid
	}
	if v, ok := fields["secret_hash"]; ok {
		details.SecretHash = []byte(v)
	}
	if v, ok := fields["expires_at"]; ok {
		nanos, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrStorageInvariant, "redisrepo token %s expires_at: %v", id, err)
		}
		exp := time.Unix(0, nanos).UTC()
		details.ExpiresAt = &exp
	}

	return &token.IssuedToken{ID: id, Details: details}, nil
}
