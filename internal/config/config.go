// Package config gathers the per-package env settings into one value for
// the server command.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

const defaultPort = "3000"

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

type Config struct {
	Port           string
	JWTSecret      []byte
	SessionTTL     time.Duration
	PasswordScheme string

	Database database.Config
	Log      utilities.Config
	Cookie   session.CookieConfig
	Contacts contact.Config
	Identity identity.Config
}

// LoadDotEnv loads .env (or the given files) into the process env.
// A missing file is not an error; real env vars win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads every setting from the env. Call LoadDotEnv first when a .env
// file should be honoured.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}

	ttl := session.DefaultTTL
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL %q", v)
		}
		ttl = d
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	return &Config{
		Port:           port,
		JWTSecret:      []byte(secret),
		SessionTTL:     ttl,
		PasswordScheme: os.Getenv("PASSWORD_SCHEME"),
		Database:       database.ConfigFromEnv(),
		Log:            utilities.ConfigFromEnv(),
		Cookie:         session.CookieConfigFromEnv(),
		Contacts:       contact.ConfigFromEnv(),
		Identity:       identity.ConfigFromEnv(),
	}, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
