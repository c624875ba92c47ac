package middleware

import (
	"context"
	"fmt"
	"net/http"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"strings"

	"github.com/golang-jwt/jwt"
)

const RequesterKey contextKey = "requester_id"

// Authenticate requires a Bearer HS256 token on every path outside
// publicPrefixes and stores its subject as the requester identity.
func Authenticate(secret string, log *logger.Logger, publicPrefixes ...string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				rejectUnauthorized(w, log, r, "Missing or invalid Authorization header")
				return
			}

			subject, err := parseSubject(strings.TrimPrefix(header, "Bearer "), key)
			if err != nil {
				log.Debug("Token rejected", "request_id", RequestIDFromContext(r.Context()), "error", err)
				rejectUnauthorized(w, log, r, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), subject)))
		})
	}
}

func parseSubject(tokenString string, key []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, msg string) {
	log.Warn("Unauthenticated request",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"method", r.Method,
	)
	_ = httputil.WriteError(w, apperrors.Unauthorized(msg))
}

// WithRequester returns ctx carrying the authenticated user ID.
func WithRequester(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, RequesterKey, userID)
}

// RequesterFromContext returns the authenticated user ID set by Authenticate.
func RequesterFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequesterKey).(string)
	return id, ok && id != ""
}
