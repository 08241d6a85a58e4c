package chi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/logger"
)

const bearerPrefix = "Bearer "

type apiKeyCtxKey struct{}

func contextWithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

// apiKeyFrom returns the API key the tenant middleware resolved, or "".
func apiKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyCtxKey{}).(string)
	return key
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(bearerPrefix):])
	return token, token != ""
}

// AdminAuthMiddleware accepts requests bearing one of adminKeys. With no keys
// configured every request is rejected.
func AdminAuthMiddleware(adminKeys []string) func(http.Handler) http.Handler {
	valid := make([][]byte, 0, len(adminKeys))
	for _, k := range adminKeys {
		if k != "" {
			valid = append(valid, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}
			for _, k := range valid {
				if subtle.ConstantTimeCompare(k, []byte(token)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.FromContext(r.Context()).Warn("Access denied", zap.String("reason", "invalid_admin_key"))
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, accessDenied)
		})
	}
}

// TenantAuthMiddleware verifies the session token and puts its API key in the
// request context. Whether the key still exists is the guard's call.
func TenantAuthMiddleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
				return
			}
			key, err := tokens.Verify(token)
			if err != nil {
				logger.FromContext(r.Context()).Warn("Access denied",
					zap.String("reason", "invalid_token"), zap.Error(err))
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, accessDenied)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithAPIKey(r.Context(), key)))
		})
	}
}
