package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
)

// RedisStore keeps each user's contacts in one hash:
// <prefix>users:<email>:contacts, field = contact key, value = JSON document.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client, cfg.Prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "addressbook:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(userKey string) string {
	return s.prefix + "users:" + userKey + ":contacts"
}

// Upsert overwrites any document already stored under contactKey.
func (s *RedisStore) Upsert(ctx context.Context, userKey, contactKey string, c entity.Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return database.Wrap("contacts.upsert", s.client.HSet(ctx, s.key(userKey), contactKey, data).Err())
}

// List returns the user's contacts ordered by key.
func (s *RedisStore) List(ctx context.Context, userKey string) ([]entity.Contact, error) {
	m, err := s.client.HGetAll(ctx, s.key(userKey)).Result()
	if err != nil {
		return nil, database.Wrap("contacts.list", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]entity.Contact, 0, len(keys))
	for _, k := range keys {
		var c entity.Contact
		if err := json.Unmarshal([]byte(m[k]), &c); err != nil {
			return nil, database.Wrap("contacts.decode", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
