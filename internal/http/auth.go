package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// withAuth validates the bearer token and puts the authenticated user id
// on the request context. Tokens are HS256-signed with the shared secret;
// the subject claim carries the user id.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			UnauthorizedError("Autentikasi diperlukan").Write(w)
			return
		}

		userID, err := s.parseToken(strings.TrimSpace(token))
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected bearer token",
				"error", err, "client_ip", extractClientIP(r))
			UnauthorizedError("Sesi tidak valid").Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) parseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

// userID returns the authenticated user id placed by withAuth.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDContextKey).(string)
	return id
}
