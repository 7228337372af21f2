package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// AUTHENTICATION - Bearer JWT to timesheet.Caller
// =============================================================================

type contextKey string

const callerContextKey contextKey = "caller"

// Claims carried by session tokens. Roles accept canonical and legacy names.
type Claims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 session tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

func (a *Authenticator) GenerateToken(userID generic.UserID, username string, roles []timesheet.Role) (string, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	now := time.Now()
	claims := &Claims{
		UserID:   string(userID),
		Username: username,
		Roles:    names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.UserID == "" {
			return nil, errors.New("token has no user_id")
		}
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Middleware rejects requests without a valid bearer token and stores the
// caller in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		caller := timesheet.Caller{
			UserID:   generic.UserID(claims.UserID),
			Username: claims.Username,
			Roles:    timesheet.ParseRoles(claims.Roles),
		}
		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFrom returns the authenticated caller stored by Middleware.
func CallerFrom(ctx context.Context) (timesheet.Caller, bool) {
	c, ok := ctx.Value(callerContextKey).(timesheet.Caller)
	return c, ok
}

// WithCaller is used by tests and internal tooling to bypass token parsing.
func WithCaller(ctx context.Context, c timesheet.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}
