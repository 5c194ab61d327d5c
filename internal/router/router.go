package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

const requestIDHeader = "X-Request-Id"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware tags each request with an id and logs it at debug level.
// An incoming X-Request-Id is kept.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = utilities.NewKSUID()
			}
			w.Header().Set(requestIDHeader, id)

			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// pages are server rendered with inline styles only
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; style-src 'self' 'unsafe-inline'; object-src 'none'; base-uri 'self'; form-action 'self';")
			}

			// HSTS only over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users    *user.Handler
	Contacts *contact.Handler
	Guard    *session.Guard
	// DB is optional; when set GET /health pings it.
	DB     Pinger
	Logger *zap.SugaredLogger
}

// RegisterRoutes mounts the pages and form endpoints on http.ServeMux.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				d.Logger.Warnw("health check failed", "err", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// entry pages; "GET /{$}" keeps unknown paths as 404
	mux.HandleFunc("GET /{$}", d.Users.LoginPage)
	mux.HandleFunc("GET /login", d.Users.LoginPage)
	mux.HandleFunc("GET /register", d.Users.RegisterPage)

	mux.HandleFunc("POST /register", d.Users.Register)
	mux.HandleFunc("POST /login", d.Users.Login)
	mux.HandleFunc("POST /logout", d.Users.Logout)

	mux.Handle("GET /dashboard", d.Guard.Require(http.HandlerFunc(d.Contacts.Dashboard)))
	mux.Handle("POST /dashboard/addContact", d.Guard.Require(http.HandlerFunc(d.Contacts.AddContact)))

	return LoggingMiddleware(d.Logger)(SecurityHeadersMiddleware()(mux))
}
