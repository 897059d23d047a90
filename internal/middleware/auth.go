package middleware

import (
	"net/http"
	"strings"

	"garbanzo/internal/httputil"
)

// TokenVerifier validates a bearer token and returns the subject it was
// issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":            true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
}

// Auth returns middleware that requires a valid bearer token on every
// request outside the public paths. The token subject is stored on the
// request context for handlers to read.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, subject))
		})
	}
}
