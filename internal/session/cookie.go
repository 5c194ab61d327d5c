package session

import (
	"net/http"
	"os"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// CookieConfigFromEnv reads SESSION_COOKIE_NAME (default "token") and COOKIE_SECURE.
func CookieConfigFromEnv() CookieConfig {
	name := os.Getenv("SESSION_COOKIE_NAME")
	if name == "" {
		name = "token"
	}
	return CookieConfig{Name: name, Secure: os.Getenv("COOKIE_SECURE") == "1"}
}

// Set writes the session cookie. It has no Expires; the token carries its own expiry.
func (c CookieConfig) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on the client.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
