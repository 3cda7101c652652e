package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/straja-ai/fdpadvisor/internal/config"
)

// Client is the runtime representation of an API client.
type Client struct {
	ID string
}

// Auth holds mappings from API keys to clients.
type Auth struct {
	apiKeyToClient map[string]Client
}

// NewFromConfig builds an Auth instance from the loaded config.
func NewFromConfig(cfg *config.Config) (*Auth, error) {
	m := make(map[string]Client)

	for _, c := range cfg.Clients {
		if c.ID == "" {
			return nil, fmt.Errorf("client with empty id in config")
		}
		for _, key := range c.APIKeys {
			if key == "" {
				continue
			}
			if _, exists := m[key]; exists {
				return nil, fmt.Errorf("an api key is assigned to multiple clients (second: %s)", c.ID)
			}
			m[key] = Client{ID: c.ID}
		}
	}

	return &Auth{
		apiKeyToClient: m,
	}, nil
}

// Enabled reports whether any key is configured. Without keys the API is open.
func (a *Auth) Enabled() bool {
	return a != nil && len(a.apiKeyToClient) > 0
}

// Lookup returns the client for a given API key, if any.
func (a *Auth) Lookup(apiKey string) (Client, bool) {
	if a == nil || apiKey == "" {
		return Client{}, false
	}
	for key, c := range a.apiKeyToClient {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return c, true
		}
	}
	return Client{}, false
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
