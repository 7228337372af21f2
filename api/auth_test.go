package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/timesheet"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	auth := api.NewAuthenticator("secret", time.Hour)
	tok, err := auth.GenerateToken("emp-1", "erik", []timesheet.Role{timesheet.RoleEmployee, timesheet.RoleAdmin})
	require.NoError(t, err)

	claims, err := auth.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, "erik", claims.Username)
	assert.Equal(t, []string{"EMPLOYEE", "ADMIN"}, claims.Roles)
	assert.Equal(t, "emp-1", claims.Subject)
}

func TestAuthenticator_RejectsForeignAndExpiredTokens(t *testing.T) {
	tok, err := api.NewAuthenticator("other", time.Hour).GenerateToken("emp-1", "erik", nil)
	require.NoError(t, err)
	_, err = api.NewAuthenticator("secret", time.Hour).ValidateToken(tok)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &api.Claims{
		UserID:           "emp-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = api.NewAuthenticator("secret", time.Hour).ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthenticator_RequiresUserID(t *testing.T) {
	tok, err := api.NewAuthenticator("secret", time.Hour).GenerateToken("", "ghost", nil)
	require.NoError(t, err)
	_, err = api.NewAuthenticator("secret", time.Hour).ValidateToken(tok)
	assert.ErrorContains(t, err, "user_id")
}

func TestMiddleware_StoresCaller(t *testing.T) {
	// GIVEN: A token with the legacy role name "ROLE_USER_EMP"
	// WHEN: It passes through the middleware
	// THEN: The handler sees the canonical EMPLOYEE role

	auth := api.NewAuthenticator("secret", time.Hour)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &api.Claims{
		UserID:   "emp-1",
		Username: "erik",
		Roles:    []string{"ROLE_USER_EMP"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	var got timesheet.Caller
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := api.CallerFrom(r.Context())
		require.True(t, ok)
		got = c
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "erik", got.Username)
	assert.Equal(t, []timesheet.Role{timesheet.RoleEmployee}, got.Roles)
}

func TestWithCaller(t *testing.T) {
	c := timesheet.Caller{UserID: "adm-1", Roles: []timesheet.Role{timesheet.RoleAdmin}}
	got, ok := api.CallerFrom(api.WithCaller(httptest.NewRequest(http.MethodGet, "/", nil).Context(), c))
	require.True(t, ok)
	assert.Equal(t, c, got)

	_, ok = api.CallerFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
