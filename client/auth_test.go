package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestBearerTokenHeaders(t *testing.T) {
	h, err := BearerToken{Token: "abc"}.Headers(context.Background())
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("unexpected authorization %q", got)
	}
	changed, err := BearerToken{Token: "abc"}.ForceRefresh(context.Background())
	if err != nil || changed {
		t.Fatalf("static token must not refresh: changed=%v err=%v", changed, err)
	}
}

func TestTokenExpired(t *testing.T) {
	tok := Token{AccessToken: "a", ExpiresAt: time.Now().Add(time.Minute)}
	if tok.Expired(0) {
		t.Fatal("token should still be valid")
	}
	if !tok.Expired(2 * time.Minute) {
		t.Fatal("token should be expired within the skew window")
	}
	never := Token{AccessToken: "a"}
	if never.Expired(time.Hour) {
		t.Fatal("token without expiry must never expire")
	}
}

func TestTokenFromExpiresIn(t *testing.T) {
	tok := TokenFromExpiresIn("access", time.Hour, "refresh")
	if tok.TokenType != "Bearer" || tok.RefreshToken != "refresh" {
		t.Fatalf("unexpected token %+v", tok)
	}
	remaining := time.Until(tok.ExpiresAt)
	if remaining > time.Hour-DefaultExpirySkew || remaining < time.Hour-DefaultExpirySkew-time.Minute {
		t.Fatalf("expiry not adjusted for skew: %v", remaining)
	}
}

func TestTokenFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tok, err := TokenFromJWT(signed)
	if err != nil {
		t.Fatalf("token from jwt: %v", err)
	}
	if !tok.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, tok.ExpiresAt)
	}

	if _, err := TokenFromJWT("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestOAuth2FetchesOnce(t *testing.T) {
	fetches := 0
	auth, err := NewOAuth2(func(context.Context) (Token, error) {
		fetches++
		return Token{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	if err != nil {
		t.Fatalf("new oauth2: %v", err)
	}

	for i := 0; i < 3; i++ {
		h, err := auth.Headers(context.Background())
		if err != nil {
			t.Fatalf("headers: %v", err)
		}
		if got := h.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected authorization %q", got)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected a single fetch, got %d", fetches)
	}
}

func TestOAuth2PrefersRefreshFlow(t *testing.T) {
	fetches := 0
	refreshes := 0
	fetch := func(context.Context) (Token, error) {
		fetches++
		return Token{
			AccessToken:  "initial",
			RefreshToken: "refresh-1",
			// Already inside the skew window, forcing a refresh on the
			// next use.
			ExpiresAt: time.Now().Add(time.Second),
		}, nil
	}
	refresh := func(_ context.Context, refreshToken string) (Token, error) {
		refreshes++
		if refreshToken != "refresh-1" {
			t.Fatalf("unexpected refresh token %q", refreshToken)
		}
		return Token{AccessToken: "renewed", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	auth, err := NewOAuth2(fetch, WithRefreshSource(refresh))
	if err != nil {
		t.Fatalf("new oauth2: %v", err)
	}

	if _, err := auth.Headers(context.Background()); err != nil {
		t.Fatalf("headers: %v", err)
	}
	h, err := auth.Headers(context.Background())
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if got := h.Get("Authorization"); got != "Bearer renewed" {
		t.Fatalf("expected renewed token, got %q", got)
	}
	if fetches != 1 || refreshes != 1 {
		t.Fatalf("expected 1 fetch and 1 refresh, got %d/%d", fetches, refreshes)
	}
}

func TestOAuth2ForceRefresh(t *testing.T) {
	tokens := []string{"first", "second"}
	auth, err := NewOAuth2(func(context.Context) (Token, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return Token{AccessToken: tok, ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	if err != nil {
		t.Fatalf("new oauth2: %v", err)
	}

	if _, err := auth.Headers(context.Background()); err != nil {
		t.Fatalf("headers: %v", err)
	}
	changed, err := auth.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if !changed {
		t.Fatal("expected token to change")
	}
	h, _ := auth.Headers(context.Background())
	if got := h.Get("Authorization"); got != "Bearer second" {
		t.Fatalf("unexpected authorization %q", got)
	}
}

func TestOAuth2RequiresTokenSource(t *testing.T) {
	if _, err := NewOAuth2(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestOAuth2PropagatesFetchError(t *testing.T) {
	wantErr := errors.New("provider down")
	auth, err := NewOAuth2(func(context.Context) (Token, error) {
		return Token{}, wantErr
	})
	if err != nil {
		t.Fatalf("new oauth2: %v", err)
	}
	if _, err := auth.Headers(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
