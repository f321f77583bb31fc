package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atiohaidar/todolist/internal/auth"
)

// RequireAuth verifies the Authorization bearer token and populates the
// request context with the resolved identity. Verification is purely
// cryptographic; no database access happens here.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if header == "" || !ok {
				unauthorized(w, "Unauthorized")
				return
			}

			id, ok := tokens.Verify(token)
			if !ok {
				unauthorized(w, "Invalid token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
