package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTMiddleware(t *testing.T) {
	h := NewAuthHandler(testSecret, "svc", zerolog.Nop())
	var seen authz.Identity
	protected := h.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authz.IdentityFromRequest(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	valid := signToken(t, jwt.MapClaims{
		"sub":   "sales-1",
		"role":  "salesman",
		"email": "sam@example.com",
		"name":  "Sam",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, jwt.MapClaims{"sub": "sales-1", "role": "salesman", "exp": time.Now().Add(-time.Hour).Unix()})
	noRole := signToken(t, jwt.MapClaims{"sub": "sales-1", "exp": time.Now().Add(time.Hour).Unix()})
	badRole := signToken(t, jwt.MapClaims{"sub": "sales-1", "role": "owner", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"missing role", "Bearer " + noRole, http.StatusUnauthorized},
		{"unknown role", "Bearer " + badRole, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, authz.Identity{UserID: "sales-1", Role: models.RoleSalesman, Email: "sam@example.com", FullName: "Sam"}, seen)
}

func TestServiceKeyMiddleware(t *testing.T) {
	h := NewAuthHandler(testSecret, "service-key", zerolog.Nop())
	protected := h.ServiceKeyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"valid key", http.MethodPost, "Bearer service-key", http.StatusOK},
		{"wrong key", http.MethodPost, "Bearer nope", http.StatusUnauthorized},
		{"no key", http.MethodPost, "", http.StatusUnauthorized},
		{"preflight passes", http.MethodOptions, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/functions/v1/generate-notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServiceKeyMiddleware_EmptyConfiguredKeyRejects(t *testing.T) {
	h := NewAuthHandler(testSecret, "", zerolog.Nop())
	protected := h.ServiceKeyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/generate-notifications", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
