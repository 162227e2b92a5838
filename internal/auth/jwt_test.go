package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuthenticator(t *testing.T) {
	authn := NewJWTAuthenticator("access-secret", "refresh-secret", "venuedir", "venuedir", time.Hour, 24*time.Hour)

	access, refresh, err := authn.GenerateTokens(42)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	t.Run("access token validates against its own secret", func(t *testing.T) {
		token, err := authn.ValidateAccessToken(access)
		if err != nil {
			t.Fatalf("ValidateAccessToken: %v", err)
		}
		claims := token.Claims.(jwt.MapClaims)
		if sub, _ := claims["sub"].(float64); int64(sub) != 42 {
			t.Errorf("sub = %v, want 42", claims["sub"])
		}
	})

	t.Run("tokens are not interchangeable", func(t *testing.T) {
		if _, err := authn.ValidateAccessToken(refresh); err == nil {
			t.Error("refresh token passed access validation")
		}
		if _, err := authn.ValidateRefreshToken(access); err == nil {
			t.Error("access token passed refresh validation")
		}
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		expired := NewJWTAuthenticator("access-secret", "refresh-secret", "venuedir", "venuedir", -time.Minute, -time.Minute)
		tok, _, err := expired.GenerateTokens(42)
		if err != nil {
			t.Fatalf("GenerateTokens: %v", err)
		}
		if _, err := authn.ValidateAccessToken(tok); err == nil {
			t.Error("expired token passed validation")
		}
	})

	t.Run("a token signed elsewhere is rejected", func(t *testing.T) {
		other := NewJWTAuthenticator("other-secret", "other-refresh", "venuedir", "venuedir", time.Hour, time.Hour)
		tok, _, err := other.GenerateTokens(42)
		if err != nil {
			t.Fatalf("GenerateTokens: %v", err)
		}
		if _, err := authn.ValidateAccessToken(tok); err == nil {
			t.Error("foreign token passed validation")
		}
	})
}
