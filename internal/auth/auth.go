// Package auth issues and verifies the bearer tokens of the archive API and
// hashes operator passwords.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("authorization token required")

// ErrInvalidToken covers malformed, wrongly signed and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Auth signs tokens for logged-in users and guards protected routes.
type Auth struct {
	// signingKey is the HMAC key for HS256 tokens.
	signingKey []byte

	// tokenTTL is how long an issued token stays valid.
	tokenTTL time.Duration

	now func() time.Time
}

// Claims is the payload of an identity token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id_user"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// ClaimsKey is the context key of the authenticated caller's claims.
const ClaimsKey ContextKey = "claims"

// New creates an Auth signing with signingKey and issuing tokens valid for tokenTTL.
func New(signingKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		signingKey: signingKey,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// IssueToken returns a signed token carrying the user's identity and role.
func (a *Auth) IssueToken(usr *models.User) (string, error) {
	now := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		UserID:   usr.ID,
		Username: usr.Username,
		Role:     usr.Role,
	}

	return a.buildJWTString(claims)
}

// ParseToken verifies the signature and expiry of tokenString and returns its claims.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

// AuthenticateUser rejects requests without a valid bearer token with 401 and
// stores the token's claims in the request context otherwise.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := bearerToken(request)
		if err != nil {
			writeUnauthorized(response, "Token tidak ditemukan")
			return
		}

		claims, err := a.ParseToken(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.ParseToken()`: ", zap.Error(err))
			writeUnauthorized(response, "Token tidak valid")
			return
		}

		ctx := context.WithValue(request.Context(), ClaimsKey, claims)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// ClaimsFromContext returns the claims stored by AuthenticateUser.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

func bearerToken(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(token), nil
}

func writeUnauthorized(response http.ResponseWriter, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(response).Encode(map[string]string{"message": message})
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
