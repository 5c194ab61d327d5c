package session

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIssuer(t *testing.T, secret string) *Issuer {
	t.Helper()
	i, err := NewIssuer([]byte(secret), time.Hour)
	require.NoError(t, err)
	return i
}

func TestNewIssuer_RejectsEmptySecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	assert.Error(t, err)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	i, err := NewIssuer([]byte("k"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, i.TTL())
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	i := newIssuer(t, "super-secret")
	fixed := time.Now().Truncate(time.Second)
	i.now = func() time.Time { return fixed }

	tok, err := i.Issue("a@a.io", "stored-credential")
	require.NoError(t, err)

	claims, err := i.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@a.io", claims.Email)
	assert.Equal(t, "stored-credential", claims.Password)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, fixed.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerify_Expired(t *testing.T) {
	past := newIssuer(t, "secret")
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := past.Issue("a@a.io", "pw")
	require.NoError(t, err)

	_, err = newIssuer(t, "secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newIssuer(t, "right").Issue("a@a.io", "pw")
	require.NoError(t, err)

	_, err = newIssuer(t, "wrong").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedPayload(t *testing.T) {
	i := newIssuer(t, "secret")
	tok, err := i.Issue("a@a.io", "pw")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	exp := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	forged := `{"email":"admin@a.io","password":"pw","exp":` + exp + `}`
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = i.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	i := newIssuer(t, "secret")
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := i.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestVerify_RejectsNoneAlg(t *testing.T) {
	claims := Claims{
		Email:            "a@a.io",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newIssuer(t, "secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@a.io"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newIssuer(t, "secret").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newGuard(t *testing.T) (*Guard, *Issuer) {
	t.Helper()
	i := newIssuer(t, "secret")
	return NewGuard(i, CookieConfig{Name: "token"}, zap.NewNop().Sugar()), i
}

func TestGuard_NoCookieRedirects(t *testing.T) {
	g, _ := newGuard(t)
	called := false
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGuard_InvalidCookieRedirects(t *testing.T) {
	g, _ := newGuard(t)
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGuard_ValidCookiePassesClaims(t *testing.T) {
	g, i := newGuard(t)
	tok, err := i.Issue("a@a.io", "pw")
	require.NoError(t, err)

	var got *Claims
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "a@a.io", got.Email)
}

func TestCookieConfig_SetAndClear(t *testing.T) {
	c := CookieConfig{Name: "token"}

	rec := httptest.NewRecorder()
	c.Set(rec, "abc")
	set := rec.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, "abc", set[0].Value)
	assert.True(t, set[0].HttpOnly)

	rec = httptest.NewRecorder()
	c.Clear(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestCookieConfigFromEnv(t *testing.T) {
	t.Setenv("SESSION_COOKIE_NAME", "")
	t.Setenv("COOKIE_SECURE", "1")
	c := CookieConfigFromEnv()
	assert.Equal(t, "token", c.Name)
	assert.True(t, c.Secure)
}
