package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

// defaultTokenTTL is how long a fetched access token is reused. The token
// endpoint does not report an expiry, so a conservative fixed window is used.
const defaultTokenTTL = 30 * time.Minute

// TokenCache stores OAuth access tokens with expiration, keyed by token URL
// and clientID.
type TokenCache struct {
	cache map[string]cacheEntry
	mu    sync.RWMutex
}

type cacheEntry struct {
	token     string
	expiresAt time.Time
}

var tokenCache = &TokenCache{
	cache: make(map[string]cacheEntry),
}

// cacheKey generates a cache key from token URL and clientID.
func cacheKey(tokenURL, clientID string) string {
	return fmt.Sprintf("crm:tokencache:%s:%s", tokenURL, clientID)
}

// GetCachedToken returns a valid cached token if available, otherwise returns empty string.
func (tc *TokenCache) GetCachedToken(tokenURL, clientID string) string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	entry, ok := tc.cache[cacheKey(tokenURL, clientID)]
	if ok && entry.token != "" && time.Now().Before(entry.expiresAt) {
		return entry.token
	}
	return ""
}

// SetToken caches a token with expiration time.
func (tc *TokenCache) SetToken(tokenURL, clientID, token string, ttl time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cache[cacheKey(tokenURL, clientID)] = cacheEntry{
		token:     token,
		expiresAt: time.Now().Add(ttl),
	}
}

// ClearToken clears the cached token for a specific token URL and clientID (useful for testing).
func (tc *TokenCache) ClearToken(tokenURL, clientID string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	delete(tc.cache, cacheKey(tokenURL, clientID))
}

// PasswordCredentials holds the OAuth password-grant credentials for the CRM
// token endpoint. The grant password is the account password concatenated
// with the security token.
type PasswordCredentials struct {
	TokenURL      string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
}

// Validate reports the first missing required credential field.
func (c PasswordCredentials) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"token URL", c.TokenURL},
		{"client ID", c.ClientID},
		{"client secret", c.ClientSecret},
		{"username", c.Username},
		{"password", c.Password},
		{"security token", c.SecurityToken},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required credential: %s", f.name)
		}
	}
	return nil
}

// TokenFetcher defines the interface for fetching OAuth access tokens.
type TokenFetcher interface {
	GetToken(ctx context.Context) (string, error)
}

// PasswordGrantFetcher implements TokenFetcher using the OAuth password
// grant against the CRM token endpoint.
type PasswordGrantFetcher struct {
	logger *logging.Logger
	client HTTPClient
	creds  PasswordCredentials
	ttl    time.Duration
}

// NewPasswordGrantFetcher creates a token fetcher for the given credentials.
func NewPasswordGrantFetcher(logger *logging.Logger, creds PasswordCredentials, opts ...FetcherOption) *PasswordGrantFetcher {
	f := &PasswordGrantFetcher{
		logger: logger,
		client: http.DefaultClient,
		creds:  creds,
		ttl:    defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetcherOption configures a PasswordGrantFetcher.
type FetcherOption func(*PasswordGrantFetcher)

// WithFetcherHTTPClient sets the underlying HTTP client.
func WithFetcherHTTPClient(hc HTTPClient) FetcherOption {
	return func(f *PasswordGrantFetcher) {
		f.client = hc
	}
}

// GetToken fetches an OAuth access token using the password grant flow.
// Failures are returned as backend faults; each handler decides whether that
// aborts the invocation or degrades to a retry prompt.
func (f *PasswordGrantFetcher) GetToken(ctx context.Context) (string, error) {
	if cached := tokenCache.GetCachedToken(f.creds.TokenURL, f.creds.ClientID); cached != "" {
		return cached, nil
	}

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {f.creds.ClientID},
		"client_secret": {f.creds.ClientSecret},
		"username":      {f.creds.Username},
		"password":      {f.creds.Password + f.creds.SecurityToken},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", faults.Backend(fmt.Errorf("error making token request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", faults.Backend(fmt.Errorf("token request returned non-200 status: %d, body: %s", resp.StatusCode, string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.Backend(fmt.Errorf("error reading token response: %v", err))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return "", faults.Backend(fmt.Errorf("error parsing token response: %v", err))
	}
	if tokenResponse.AccessToken == "" {
		return "", faults.Backend(fmt.Errorf("missing access_token in token response"))
	}

	f.logger.Debugf("Fetched access token from %s", f.creds.TokenURL)
	tokenCache.SetToken(f.creds.TokenURL, f.creds.ClientID, tokenResponse.AccessToken, f.ttl)

	return tokenResponse.AccessToken, nil
}
