package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	request "sanitrack/pkg/platform/middleware/request"
)

// RequireAdminToken guards operator endpoints with a static X-Admin-Token.
// An empty expected token rejects every request.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAdmin(func(token string) bool {
		return expectedToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
	}, logger)
}

// RequireAdminTokenHash guards operator endpoints with an X-Admin-Token that
// must match a bcrypt hash. An empty hash rejects every request.
func RequireAdminTokenHash(hash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireAdmin(func(token string) bool {
		return hash != "" && token != "" && VerifyToken(token, hash) == nil
	}, logger)
}

// HashToken creates a bcrypt hash suitable for ADMIN_API_TOKEN_HASH.
func HashToken(token string, cost int) (string, error) {
	if token == "" {
		return "", errors.New("admin token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("could not hash admin token: %w", err)
	}
	return string(hashed), nil
}

// VerifyToken checks a presented token against a bcrypt hash.
func VerifyToken(token, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("invalid admin token")
		}
		return fmt.Errorf("could not verify admin token: %w", err)
	}
	return nil
}

func requireAdmin(verify func(token string) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verify(r.Header.Get("X-Admin-Token")) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
