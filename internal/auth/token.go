package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cabindev/sdnfutsal/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims issued by the identity provider.
// Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens and turns them into actors.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret string, issuer string) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &TokenVerifier{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}, nil
}

func (v *TokenVerifier) Verify(tokenString string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		}
		return domain.Actor{}, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return domain.Actor{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return domain.Actor{}, fmt.Errorf("%w: token subject is empty", domain.ErrUnauthenticated)
	}
	role, err := domain.ParseRoleFromString(claims.Role)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: token role %q is not recognised", domain.ErrUnauthenticated, claims.Role)
	}

	return domain.Actor{UserID: userID, Role: role}, nil
}

// Issue signs a token for actor. The API never issues tokens itself; this
// backs local tooling and tests.
func (v *TokenVerifier) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role: actor.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
