package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// LeadTime is subtracted from the reported token lifetime so a cached token
// never expires while a request that carries it is in flight.
const LeadTime = 30 * time.Second

// MaxTokenLifetime caps the reported expiry so the conversion to a
// time.Duration cannot overflow.
const MaxTokenLifetime = 365 * 24 * time.Hour

const tokenCacheKey = "access-token"

// Credentials identify the single API user the service authenticates as.
type Credentials struct {
	CompanyID  string
	UserID     string
	UserSecret string
}

// ExchangeResult is the response of a credential exchange.
type ExchangeResult struct {
	AccessToken      string
	ExpiresInSeconds int
}

// CredentialExchange trades credentials for a bearer token.
type CredentialExchange interface {
	Authenticate(ctx context.Context, creds Credentials) (*ExchangeResult, error)
}

// AuthenticationError reports a failed or invalid credential exchange.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsAuthenticationError reports whether err is or wraps an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// RefreshObserver is notified after every successful exchange.
type RefreshObserver interface {
	TokenRefreshed(ctx context.Context)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenCache holds one bearer token and refreshes it on demand. Concurrent
// misses share a single in-flight exchange.
type TokenCache struct {
	exchange CredentialExchange
	creds    Credentials
	logger   Logger
	observer RefreshObserver
	now      func() time.Time

	mu     sync.RWMutex
	cached *cachedToken
	group  singleflight.Group
}

// TokenCacheOption customizes a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) { c.now = now }
}

// WithRefreshObserver registers an observer for successful refreshes.
func WithRefreshObserver(o RefreshObserver) TokenCacheOption {
	return func(c *TokenCache) { c.observer = o }
}

// NewTokenCache creates a TokenCache for the given credentials.
func NewTokenCache(exchange CredentialExchange, creds Credentials, logger Logger, opts ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		exchange: exchange,
		creds:    creds,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetToken returns the cached token, performing an exchange when the cache
// is empty or expired.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	if tok, ok := c.lookup(); ok {
		return tok.value, nil
	}

	v, err, _ := c.group.Do(tokenCacheKey, func() (any, error) {
		// A flight that finished just before this one may already have
		// stored a fresh token.
		if tok, ok := c.lookup(); ok {
			return tok, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(*cachedToken).value, nil
}

// TokenContext returns the cached token as an oauth2.Token for outbound
// transports. An exchange it triggers is bound to ctx, so a cancelled
// request stops waiting on it.
func (c *TokenCache) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	value, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok := &oauth2.Token{AccessToken: value, TokenType: "Bearer"}
	if c.cached != nil && c.cached.value == value {
		tok.Expiry = c.cached.expiresAt
	}
	return tok, nil
}

// Invalidate drops the cached token. Outbound clients call it when the
// remote rejects a token before its computed expiry.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *TokenCache) lookup() (*cachedToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil || !c.now().Before(c.cached.expiresAt) {
		return nil, false
	}
	return c.cached, true
}

func (c *TokenCache) refresh(ctx context.Context) (*cachedToken, error) {
	c.logger.Info("Token is expired or not present, requesting a new token")

	resp, err := c.exchange.Authenticate(ctx, c.creds)
	if err != nil {
		c.logger.Error("Credential exchange failed", "error", err)
		return nil, &AuthenticationError{Reason: "credential exchange failed", Err: err}
	}
	if resp == nil || resp.AccessToken == "" {
		c.logger.Error("Credential exchange returned no access token")
		return nil, &AuthenticationError{Reason: "response was empty or carried no access token"}
	}
	if resp.ExpiresInSeconds <= 0 {
		c.logger.Error("Credential exchange returned a non-positive expiry", "expires_in", resp.ExpiresInSeconds)
		return nil, &AuthenticationError{Reason: fmt.Sprintf("invalid token expiry %d", resp.ExpiresInSeconds)}
	}

	lifetime := MaxTokenLifetime
	if resp.ExpiresInSeconds < int(MaxTokenLifetime/time.Second) {
		lifetime = time.Duration(resp.ExpiresInSeconds) * time.Second
	}
	tok := &cachedToken{
		value:     resp.AccessToken,
		expiresAt: c.now().Add(lifetime - LeadTime),
	}
	c.mu.Lock()
	c.cached = tok
	c.mu.Unlock()

	c.logger.Info("New token acquired and stored", "valid_until", tok.expiresAt.UTC().Format(time.RFC3339))
	if c.observer != nil {
		c.observer.TokenRefreshed(ctx)
	}
	return tok, nil
}
