package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
)

type failingMirror struct{ calls int }

func (f *failingMirror) CreateUser(ctx context.Context, email, password string) error {
	f.calls++
	return &identity.ProviderError{Status: http.StatusBadRequest, Message: "EMAIL_EXISTS"}
}

type fixture struct {
	store   *memStore
	issuer  *session.Issuer
	cookies session.CookieConfig
	handler *Handler
}

func newFixture(t *testing.T, mirror identity.Mirror, required bool) *fixture {
	t.Helper()
	issuer, err := session.NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	pages, err := web.NewRenderer()
	require.NoError(t, err)

	store := &memStore{}
	cookies := session.CookieConfig{Name: "token"}
	h := NewHandler(HandlerDeps{
		Service:        NewUserService(store, fastArgon2()),
		Issuer:         issuer,
		Cookies:        cookies,
		Mirror:         mirror,
		MirrorRequired: required,
		Pages:          pages,
		Logger:         zap.NewNop().Sugar(),
	})
	return &fixture{store: store, issuer: issuer, cookies: cookies, handler: h}
}

func form(target string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func registerValues(email, pw, confirm string) url.Values {
	return url.Values{"email": {email}, "password": {pw}, "confirm": {confirm}}
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := httptest.NewRecorder()
	f.handler.Register(rec, form("/register", registerValues("a@a.io", "password1", "password1")))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	claims, err := f.issuer.Verify(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@a.io", claims.Email)
	assert.Equal(t, f.store.rows[0].Password, claims.Password)
	assert.NotEqual(t, "password1", claims.Password)
}

func TestRegister_ValidationMessages(t *testing.T) {
	f := newFixture(t, nil, false)

	cases := []struct {
		values url.Values
		want   string
	}{
		{registerValues("x@x.i", "password1", "password1"), "Email must be between 6 and 255 characters (inclusive.)"},
		{registerValues("a@a.io", "short", "short"), "Password must be between 8 and 255 characters (inclusive.)"},
		{registerValues("a@a.io", "password1", "password2"), "Passwords do not match."},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		f.handler.Register(rec, form("/register", tc.values))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"status": tc.want}, body)
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Zero(t, f.store.inserts)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t, nil, false)
	f.handler.Register(httptest.NewRecorder(), form("/register", registerValues("a@a.io", "password1", "password1")))

	rec := httptest.NewRecorder()
	f.handler.Register(rec, form("/register", registerValues("a@a.io", "password2", "password2")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"Email already signed up."}`, rec.Body.String())
	assert.Len(t, f.store.rows, 1)
}

func TestRegister_JSONBody(t *testing.T) {
	f := newFixture(t, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"email":"a@a.io","password":"password1","confirm":"password1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.Register(rec, req)

	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRegister_StorageErrorRedirects(t *testing.T) {
	f := newFixture(t, nil, false)
	f.store.err = database.Wrap("users.find_by_email", errors.New("down"))

	rec := httptest.NewRecorder()
	f.handler.Register(rec, form("/register", registerValues("a@a.io", "password1", "password1")))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
}

func TestRegister_MirrorFailure(t *testing.T) {
	t.Run("optional mirror still starts the session", func(t *testing.T) {
		m := &failingMirror{}
		f := newFixture(t, m, false)

		rec := httptest.NewRecorder()
		f.handler.Register(rec, form("/register", registerValues("a@a.io", "password1", "password1")))

		assert.Equal(t, 1, m.calls)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		sessionCookie(t, rec)
	})

	t.Run("required mirror withholds the session", func(t *testing.T) {
		m := &failingMirror{}
		f := newFixture(t, m, true)

		rec := httptest.NewRecorder()
		f.handler.Register(rec, form("/register", registerValues("a@a.io", "password1", "password1")))

		assert.Equal(t, "/register", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
		// the local row is kept
		assert.Len(t, f.store.rows, 1)
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil, false)
	f.handler.Register(httptest.NewRecorder(), form("/register", registerValues("a@a.io", "password1", "password1")))

	t.Run("valid credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.Login(rec, form("/login", url.Values{"email": {"a@a.io"}, "password": {"password1"}}))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		claims, err := f.issuer.Verify(sessionCookie(t, rec).Value)
		require.NoError(t, err)
		assert.Equal(t, "a@a.io", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.Login(rec, form("/login", url.Values{"email": {"a@a.io"}, "password": {"password2"}}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid combination."}`, rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.handler.Login(rec, form("/login", url.Values{"email": {"nobody@a.io"}, "password": {"password1"}}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogin_StorageErrorRedirects(t *testing.T) {
	f := newFixture(t, nil, false)
	f.store.err = database.Wrap("users.find_by_email", errors.New("down"))

	rec := httptest.NewRecorder()
	f.handler.Login(rec, form("/login", url.Values{"email": {"a@a.io"}, "password": {"password1"}}))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := httptest.NewRecorder()
	f.handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestEntryPages(t *testing.T) {
	f := newFixture(t, nil, false)

	rec := httptest.NewRecorder()
	f.handler.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)

	rec = httptest.NewRecorder()
	f.handler.RegisterPage(rec, httptest.NewRequest(http.MethodGet, "/register", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/register"`)
}
