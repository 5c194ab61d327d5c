package contact

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/repo"
)

// StoreCloser is a Store holding a connection or file that must be released.
type StoreCloser interface {
	Store
	Close() error
}

type Config struct {
	Backend  string // "redis" or "bolt"
	Redis    repo.RedisConfig
	BoltPath string
}

// ConfigFromEnv reads CONTACT_STORE, REDIS_* and BOLT_PATH.
func ConfigFromEnv() Config {
	backend := os.Getenv("CONTACT_STORE")
	if backend == "" {
		backend = "redis"
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	path := os.Getenv("BOLT_PATH")
	if path == "" {
		path = "contacts.db"
	}
	return Config{
		Backend: backend,
		Redis: repo.RedisConfig{
			Addr:     addr,
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
			Prefix:   os.Getenv("REDIS_PREFIX"),
		},
		BoltPath: path,
	}
}

// OpenStore connects the configured backend.
func OpenStore(ctx context.Context, cfg Config) (StoreCloser, error) {
	switch cfg.Backend {
	case "redis":
		s, err := repo.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := repo.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown contact store %q", cfg.Backend)
	}
}
