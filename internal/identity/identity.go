// Package identity mirrors new registrations into an external identity
// provider speaking the Identity Toolkit REST API (accounts:signUp).
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

var ErrProvider = errors.New("identity provider error")

// ProviderError is a non-2xx or transport failure from the provider.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity provider: %v", e.Err)
	}
	return fmt.Sprintf("identity provider: status %d: %s", e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Mirror creates the account on the provider side.
type Mirror interface {
	CreateUser(ctx context.Context, email, password string) error
}

type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// Required makes a failed mirror abort the registration session.
	Required bool
}

// ConfigFromEnv reads IDENTITY_API_KEY (falling back to FIREBASE_API_KEY),
// IDENTITY_ENDPOINT and IDENTITY_MIRROR_REQUIRED.
func ConfigFromEnv() Config {
	key := os.Getenv("IDENTITY_API_KEY")
	if key == "" {
		key = os.Getenv("FIREBASE_API_KEY")
	}
	endpoint := os.Getenv("IDENTITY_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return Config{
		APIKey:   key,
		Endpoint: strings.TrimRight(endpoint, "/"),
		Timeout:  10 * time.Second,
		Required: os.Getenv("IDENTITY_MIRROR_REQUIRED") == "1",
	}
}

// New returns a REST client, or Noop when no API key is configured.
func New(cfg Config, hc *http.Client) Mirror {
	if cfg.APIKey == "" {
		return Noop{}
	}
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{endpoint: endpoint, apiKey: cfg.APIKey, http: hc}
}

// Noop accepts every registration without calling anything.
type Noop struct{}

func (Noop) CreateUser(ctx context.Context, email, password string) error { return nil }

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateUser(ctx context.Context, email, password string) error {
	body, err := json.Marshal(signUpRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return err
	}
	u := c.endpoint + "/accounts:signUp?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var er errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
		msg = er.Error.Message
	}
	return &ProviderError{Status: resp.StatusCode, Message: msg}
}
