package session

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFrom returns the claims the guard stored for this request.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// Guard gates protected handlers on a valid session cookie. Any failure
// redirects to the entry page; the reason only goes to the log.
// It does not consult the credential store.
type Guard struct {
	issuer  *Issuer
	cookies CookieConfig
	logger  *zap.SugaredLogger
}

func NewGuard(issuer *Issuer, cookies CookieConfig, logger *zap.SugaredLogger) *Guard {
	return &Guard{issuer: issuer, cookies: cookies, logger: logger}
}

// Require wraps next with the session check.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(g.cookies.Name)
		if err != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		claims, err := g.issuer.Verify(c.Value)
		if err != nil {
			g.logger.Debugw("session rejected", "path", r.URL.Path, "err", err)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
