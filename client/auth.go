package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpirySkew is subtracted from token lifetimes so tokens are
// refreshed shortly before the server rejects them.
const DefaultExpirySkew = 30 * time.Second

// Auth supplies authentication headers for outgoing requests.
type Auth interface {
	// Headers returns the headers to attach to a request.
	Headers(ctx context.Context) (http.Header, error)

	// ForceRefresh renews credentials after a 401. It returns true if
	// the credentials changed and the request is worth replaying.
	ForceRefresh(ctx context.Context) (bool, error)
}

// BearerToken is a static bearer token with no refresh.
type BearerToken struct {
	Token string
}

// Headers returns the Authorization header for the token.
func (b BearerToken) Headers(context.Context) (http.Header, error) {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+b.Token)
	return h, nil
}

// ForceRefresh is a no-op for static tokens.
func (b BearerToken) ForceRefresh(context.Context) (bool, error) {
	return false, nil
}

// Token is a runtime container for OAuth2 tokens.
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string

	// ExpiresAt is the absolute expiry; zero means the token does not
	// expire as far as the client knows.
	ExpiresAt time.Time
}

// TokenFromExpiresIn builds a Token from a token endpoint response that
// reports a relative expires_in, applying the default skew.
func TokenFromExpiresIn(accessToken string, expiresIn time.Duration, refreshToken string) Token {
	lifetime := expiresIn - DefaultExpirySkew
	if lifetime < 0 {
		lifetime = 0
	}
	return Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(lifetime),
	}
}

// TokenFromJWT builds a Token whose expiry is read from the access
// token's exp claim. The signature is not verified; the server remains
// the authority on validity.
func TokenFromJWT(accessToken string) (Token, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return Token{}, err
	}
	tok := Token{AccessToken: accessToken, TokenType: "Bearer"}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}
	return tok, nil
}

// Expired reports whether the token expires within the given skew.
func (t Token) Expired(skew time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !time.Now().Add(skew).Before(t.ExpiresAt)
}

func (t Token) authorization() string {
	typ := t.TokenType
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + t.AccessToken
}

// TokenSource fetches a fresh token from the provider.
type TokenSource func(ctx context.Context) (Token, error)

// RefreshSource exchanges a refresh token for a fresh token.
type RefreshSource func(ctx context.Context, refreshToken string) (Token, error)

// OAuth2 cycles access and refresh tokens. Only one goroutine performs
// a refresh at a time; the rest wait and reuse the result.
type OAuth2 struct {
	fetch   TokenSource
	refresh RefreshSource
	skew    time.Duration

	mu    sync.Mutex
	token *Token
}

// OAuth2Option customises the OAuth2 strategy.
type OAuth2Option func(*OAuth2)

// WithRefreshSource enables the refresh-token flow.
func WithRefreshSource(r RefreshSource) OAuth2Option {
	return func(o *OAuth2) { o.refresh = r }
}

// WithExpirySkew overrides the default expiry skew.
func WithExpirySkew(skew time.Duration) OAuth2Option {
	return func(o *OAuth2) { o.skew = skew }
}

// NewOAuth2 builds an OAuth2 auth strategy around a token source.
func NewOAuth2(fetch TokenSource, opts ...OAuth2Option) (*OAuth2, error) {
	if fetch == nil {
		return nil, errors.New("oauth2 auth requires a token source")
	}
	o := &OAuth2{fetch: fetch, skew: DefaultExpirySkew}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ensureToken fetches or renews the token when missing or expired.
// Callers must hold the mutex.
func (o *OAuth2) ensureToken(ctx context.Context) error {
	if o.token != nil && !o.token.Expired(o.skew) {
		return nil
	}
	var (
		tok Token
		err error
	)
	if o.token != nil && o.refresh != nil && o.token.RefreshToken != "" {
		tok, err = o.refresh(ctx, o.token.RefreshToken)
	} else {
		tok, err = o.fetch(ctx)
	}
	if err != nil {
		return err
	}
	o.token = &tok
	return nil
}

// Headers returns the Authorization header, refreshing first if the
// cached token has expired.
func (o *OAuth2) Headers(ctx context.Context) (http.Header, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.ensureToken(ctx); err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", o.token.authorization())
	return h, nil
}

// Refresh proactively renews an expired token. It returns true if the
// access token changed.
func (o *OAuth2) Refresh(ctx context.Context) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	before := o.accessToken()
	if err := o.ensureToken(ctx); err != nil {
		return false, err
	}
	return before != o.accessToken(), nil
}

// ForceRefresh renews the token unconditionally, preferring the
// refresh-token flow when available. Used after a 401.
func (o *OAuth2) ForceRefresh(ctx context.Context) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	before := o.accessToken()
	var (
		tok Token
		err error
	)
	if o.token != nil && o.refresh != nil && o.token.RefreshToken != "" {
		tok, err = o.refresh(ctx, o.token.RefreshToken)
	} else {
		tok, err = o.fetch(ctx)
	}
	if err != nil {
		return false, err
	}
	o.token = &tok
	return before != o.accessToken(), nil
}

func (o *OAuth2) accessToken() string {
	if o.token == nil {
		return ""
	}
	return o.token.AccessToken
}
