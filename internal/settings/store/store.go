// Package store provides the Redis-backed key/value store for portal and
// per-user settings.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workflow_portal_backend/internal/settings/crypto"
	"workflow_portal_backend/platform/apperr"
	"workflow_portal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	portalPrefix = "settings:portal:"
	userPrefix   = "settings:user:"
)

// Setting is one stored key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Secret    bool      `json:"secret"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// entry is the persisted shape; secret values are encrypted before storage.
type entry struct {
	Value     string    `json:"value"`
	Secret    bool      `json:"secret"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists settings in Redis.
type Store struct {
	rdb *redis.Client
	key []byte
}

// New creates a settings store from the Redis URL. The settings secret is
// optional; without it secret values are rejected rather than stored in the
// clear.
func New(cfg config.SettingsConfig) (*Store, error) {
	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() && opts.TLSConfig != nil {
		opts.TLSConfig.InsecureSkipVerify = true
	}

	var key []byte
	if secret := cfg.GetSettingsSecret(); secret != "" {
		key = crypto.DeriveKey(secret)
	}

	return &Store{rdb: redis.NewClient(opts), key: key}, nil
}

// NewWithClient wires an existing Redis client, used by tests.
func NewWithClient(rdb *redis.Client, secret string) *Store {
	var key []byte
	if secret != "" {
		key = crypto.DeriveKey(secret)
	}
	return &Store{rdb: rdb, key: key}
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// SetPortal writes a portal-wide setting.
func (s *Store) SetPortal(ctx context.Context, setting Setting) error {
	return s.set(ctx, portalPrefix+setting.Key, setting)
}

// GetPortal reads a portal-wide setting.
func (s *Store) GetPortal(ctx context.Context, key string) (Setting, error) {
	return s.get(ctx, portalPrefix+key, key)
}

// DeletePortal removes a portal-wide setting.
func (s *Store) DeletePortal(ctx context.Context, key string) error {
	return s.delete(ctx, portalPrefix+key)
}

// ListPortal returns every portal-wide setting.
func (s *Store) ListPortal(ctx context.Context) ([]Setting, error) {
	return s.list(ctx, portalPrefix)
}

// SetUser writes a per-user setting.
func (s *Store) SetUser(ctx context.Context, userID uuid.UUID, setting Setting) error {
	return s.set(ctx, userKey(userID, setting.Key), setting)
}

// GetUser reads a per-user setting.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID, key string) (Setting, error) {
	return s.get(ctx, userKey(userID, key), key)
}

// DeleteUser removes a per-user setting.
func (s *Store) DeleteUser(ctx context.Context, userID uuid.UUID, key string) error {
	return s.delete(ctx, userKey(userID, key))
}

// ListUser returns every setting for one user.
func (s *Store) ListUser(ctx context.Context, userID uuid.UUID) ([]Setting, error) {
	return s.list(ctx, userPrefix+userID.String()+":")
}

// PurgeUser removes all settings for a user. Runs as part of the deferred
// post-sign-out cleanup.
func (s *Store) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	prefix := userPrefix + userID.String() + ":"
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("purge user setting %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan user settings: %w", err)
	}
	return nil
}

func (s *Store) set(ctx context.Context, redisKey string, setting Setting) error {
	value := setting.Value
	if setting.Secret {
		if s.key == nil {
			return apperr.Unconfigured("SETTINGS_SECRET is required to store secret settings")
		}
		encrypted, err := crypto.Encrypt(value, s.key)
		if err != nil {
			return fmt.Errorf("encrypt setting: %w", err)
		}
		value = encrypted
	}

	updatedAt := setting.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry{
		Value:     value,
		Secret:    setting.Secret,
		UpdatedBy: setting.UpdatedBy,
		UpdatedAt: updatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal setting: %w", err)
	}

	if err := s.rdb.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("store setting: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, redisKey, key string) (Setting, error) {
	data, err := s.rdb.Get(ctx, redisKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Setting{}, apperr.NotFound("setting not found")
		}
		return Setting{}, fmt.Errorf("read setting: %w", err)
	}
	return s.decode(data, key)
}

func (s *Store) delete(ctx context.Context, redisKey string) error {
	deleted, err := s.rdb.Del(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if deleted == 0 {
		return apperr.NotFound("setting not found")
	}
	return nil
}

func (s *Store) list(ctx context.Context, prefix string) ([]Setting, error) {
	settings := make([]Setting, 0)
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()
		data, err := s.rdb.Get(ctx, redisKey).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("read setting %s: %w", redisKey, err)
		}

		setting, err := s.decode(data, redisKey[len(prefix):])
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	return settings, nil
}

func (s *Store) decode(data []byte, key string) (Setting, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Setting{}, fmt.Errorf("unmarshal setting: %w", err)
	}

	value := e.Value
	if e.Secret {
		if s.key == nil {
			return Setting{}, apperr.Unconfigured("SETTINGS_SECRET is required to read secret settings")
		}
		decrypted, err := crypto.Decrypt(value, s.key)
		if err != nil {
			return Setting{}, fmt.Errorf("decrypt setting: %w", err)
		}
		value = decrypted
	}

	return Setting{
		Key:       key,
		Value:     value,
		Secret:    e.Secret,
		UpdatedBy: e.UpdatedBy,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func userKey(userID uuid.UUID, key string) string {
	return userPrefix + userID.String() + ":" + key
}
