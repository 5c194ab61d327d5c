package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type Config struct {
	DSN      string
	MaxConns int
	Timeout  time.Duration
}

// ConfigFromEnv reads DB config from environment variables.
// DATABASE_URL wins; otherwise the DSN is assembled from the
// DATABASE_HOST / DATABASE_USER / DATABASE_PASSWORD / DATABASE_ID parts.
// DATABASE_TIMEZONE and DATABASE_CLIENT_ENCODING are added to the DSN as
// startup parameters so every pooled connection carries them.
func ConfigFromEnv() Config {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = dsnFromParts(
			os.Getenv("DATABASE_HOST"),
			os.Getenv("DATABASE_USER"),
			os.Getenv("DATABASE_PASSWORD"),
			os.Getenv("DATABASE_ID"),
		)
	}
	dsn = withSessionParams(dsn, os.Getenv("DATABASE_TIMEZONE"), os.Getenv("DATABASE_CLIENT_ENCODING"))

	max := 10
	if v, err := strconv.Atoi(os.Getenv("DATABASE_POOL_SIZE")); err == nil && v > 0 {
		max = v
	}
	return Config{DSN: dsn, MaxConns: max, Timeout: 5 * time.Second}
}

func dsnFromParts(host, user, password, name string) string {
	if host == "" {
		host = "localhost:5432"
	}
	if user == "" {
		user = "postgres"
	}
	if name == "" {
		name = "addressbook"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// withSessionParams appends timezone / client_encoding to a URL or
// key=value DSN. lib/pq sends unknown keys as run-time parameters.
func withSessionParams(dsn, timeZone, clientEncoding string) string {
	params := [][2]string{}
	if timeZone != "" {
		params = append(params, [2]string{"timezone", timeZone})
	}
	if clientEncoding != "" {
		params = append(params, [2]string{"client_encoding", clientEncoding})
	}
	if len(params) == 0 {
		return dsn
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if u, err := url.Parse(dsn); err == nil {
			q := u.Query()
			for _, p := range params {
				q.Set(p[0], p[1])
			}
			u.RawQuery = q.Encode()
			return u.String()
		}
	}

	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range params {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p[0] + "=" + quoteValue(p[1]))
	}
	return b.String()
}

// quoteValue quotes a key=value DSN value the way lib/pq parses it.
func quoteValue(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// Connect opens a *sql.DB and verifies connectivity with a ping
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
