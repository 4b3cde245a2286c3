package fakebackend

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	contextKeyUserID    contextKey = "user_id"
	contextKeySessionID contextKey = "session_id"
)

// requireAuth validates the Bearer access token and puts the caller in the context.
func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			b.fail(w, http.StatusUnauthorized, "Token no proporcionado")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			b.fail(w, http.StatusUnauthorized, "Formato de token inválido")
			return
		}

		b.mu.Lock()
		claims, err := b.parseAccess(parts[1])
		active := err == nil && b.sessionActive(claims.SessionID)
		b.mu.Unlock()

		if err != nil || !active {
			b.fail(w, http.StatusUnauthorized, "Token inválido o expirado")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, contextKeySessionID, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyUserID).(string)
	return id
}

func callerSession(r *http.Request) string {
	id, _ := r.Context().Value(contextKeySessionID).(string)
	return id
}

func (b *Backend) sessionActive(id string) bool {
	for _, s := range b.sessions {
		if s.ID == id {
			return !s.Revoked
		}
	}
	return false
}
