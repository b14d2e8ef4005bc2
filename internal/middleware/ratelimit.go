package middleware

import (
	"log"
	"net"
	"net/http"

	"flash-sale-api/internal/limiter"
	"flash-sale-api/pkg/apierror"
)

// NewRateLimit throttles requests per caller. The key is the session's user
// ID when authenticated, the remote IP otherwise.
func NewRateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)

			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Printf("[RateLimit] Limiter error for %s: %v", key, err)
				writeError(w, apierror.ServiceUnavailable("Rate limiter unavailable"))
				return
			}
			if !allowed {
				writeError(w, apierror.TooManyRequests("Too many purchase attempts, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if data := GetTokenDataFromContext(r.Context()); data != nil {
		return "user:" + data.UserID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
