package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"orgsite-client/internal/repository/memory"
)

type contextKey string

const accountKey contextKey = "account"

// TokenValidator resolves a bearer token to an account.
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (*memory.Account, error)
}

// Bearer rejects requests without a valid "Authorization: Bearer <token>"
// header with 401 and puts the account in the request context.
func Bearer(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			acct, err := validator.Authenticate(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				WriteDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func GetAccount(ctx context.Context) (*memory.Account, bool) {
	acct, ok := ctx.Value(accountKey).(*memory.Account)
	return acct, ok
}

func WithAccount(ctx context.Context, acct *memory.Account) context.Context {
	return context.WithValue(ctx, accountKey, acct)
}

// WriteDetail writes a FastAPI style error body: {"detail": msg}.
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"detail": msg})
}

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
