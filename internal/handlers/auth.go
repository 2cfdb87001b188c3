package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/authz"
	"github.com/stanstork/leadwatch-api/internal/models"
)

// AuthHandler verifies bearer credentials. Tokens are issued by the external
// identity provider; this service only checks them.
type AuthHandler struct {
	jwtSecret  string
	serviceKey string
	logger     zerolog.Logger
}

func NewAuthHandler(jwtSecret, serviceKey string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		jwtSecret:  jwtSecret,
		serviceKey: serviceKey,
		logger:     logger.With().Str("handler", "auth").Logger(),
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		tokenString, ok := bearerToken(r)
		if !ok {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			h.logger.Debug().Err(err).Msg("rejected bearer token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}

		identity, ok := identityFromClaims(claims)
		if !ok {
			http.Error(w, "Missing identity claims", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.WithIdentity(r.Context(), identity)))
	})
}

func identityFromClaims(claims jwt.MapClaims) (authz.Identity, bool) {
	userID, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	role := models.NormalizeRole(rawRole)
	if strings.TrimSpace(userID) == "" || role == "" {
		return authz.Identity{}, false
	}

	identity := authz.Identity{UserID: strings.TrimSpace(userID), Role: role}
	identity.Email, _ = claims["email"].(string)
	identity.FullName, _ = claims["name"].(string)
	if identity.FullName == "" {
		identity.FullName, _ = claims["full_name"].(string)
	}
	return identity, true
}

// ServiceKeyMiddleware guards the function endpoints. Preflight requests pass
// through untouched.
func (h *AuthHandler) ServiceKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := bearerToken(r)
		if !ok || h.serviceKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.serviceKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid service credential"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Me echoes the verified identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromRequest(r)
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, identity.User())
}
