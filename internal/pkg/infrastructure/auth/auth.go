// Package auth verifies the bearer tokens that identify the calling principal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
)

var (
	//ErrTokenMissing is returned when a request carries no bearer token
	ErrTokenMissing = errors.New("authentication credentials were not provided")
	//ErrTokenInvalid is returned for tokens that fail signature, expiry or claim checks
	ErrTokenInvalid = errors.New("invalid token")
)

//Claims are the token claims that identify a principal
type Claims struct {
	jwt.RegisteredClaims
	Superuser bool `json:"su,omitempty"`
}

//GenerateToken signs a token for username that expires after ttl
func GenerateToken(username string, superuser bool, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Superuser: superuser,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

//ParseToken validates tokenString and returns the principal it was issued to
func ParseToken(tokenString, secret string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Principal{}, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return domain.Principal{Username: claims.Subject, Superuser: claims.Superuser}, nil
}

type contextKey string

const principalKey contextKey = "principal"

//WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

//PrincipalFromContext returns the principal stored by the middleware, if any
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

//Middleware rejects requests without a valid bearer token and stores the principal
//in the request context. Rejections are written by onError.
func Middleware(secret string, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			p, err := ParseToken(tokenString, secret)
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrTokenMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrTokenInvalid)
	}

	return strings.TrimSpace(token), nil
}
