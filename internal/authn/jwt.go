package authn

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/motora-erp/motora-erp/internal/authz"
)

// JWTVerifier validates locally issued HS256 tokens. Used when the service
// runs without a reachable identity provider (development, tests).
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email        string              `json:"email"`
	UserMetadata authz.ClaimMetadata `json:"user_metadata"`
}

// Verify parses and validates the token, enforcing the HS256 signing method.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("authn: unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("authn: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("authn: token invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("authn: token has no subject")
	}
	return &Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Metadata: claims.UserMetadata,
	}, nil
}
