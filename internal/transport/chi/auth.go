package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// exemptPaths bypass authentication so health checks and scrapers need no key.
var exemptPaths = map[string]struct{}{
	"/":        {},
	"/health":  {},
	"/metrics": {},
}

const bearerPrefix = "Bearer "

// BearerAuthMiddleware validates "Authorization: Bearer <key>" against
// apiKeys. With no non-empty key configured the API is open.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			switch {
			case auth == "":
				writeMessage(w, http.StatusUnauthorized, "Missing authorization header")
				return
			case !strings.HasPrefix(auth, bearerPrefix):
				writeMessage(w, http.StatusUnauthorized, "Authorization header must use the Bearer scheme")
				return
			}

			got := sha256.Sum256([]byte(auth[len(bearerPrefix):]))
			for i := range digests {
				if subtle.ConstantTimeCompare(got[:], digests[i][:]) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeMessage(w, http.StatusUnauthorized, "Invalid API key")
		})
	}
}
