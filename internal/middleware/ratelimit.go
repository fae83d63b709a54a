package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/ratelimit"
)

// Tier selects the bucket one rate-limit tier charges for a request. It
// returns false when the tier does not apply.
type Tier func(r *http.Request) (ratelimit.Check, bool)

// GeneralTier charges the actor: the authenticated user, else the client IP
func GeneralTier(r *http.Request) (ratelimit.Check, bool) {
	actor := GetUserID(r.Context())
	if actor == "" {
		actor = "ip:" + ClientIP(r)
	}
	return ratelimit.Check{Scope: ratelimit.ScopeGeneral, ID: actor}, true
}

// UserTier charges the authenticated user under scope
func UserTier(scope ratelimit.Scope) Tier {
	return func(r *http.Request) (ratelimit.Check, bool) {
		userID := GetUserID(r.Context())
		return ratelimit.Check{Scope: scope, ID: userID}, userID != ""
	}
}

// PathTier charges the route parameter name under scope
func PathTier(scope ratelimit.Scope, name string) Tier {
	return func(r *http.Request) (ratelimit.Check, bool) {
		id := r.PathValue(name)
		return ratelimit.Check{Scope: scope, ID: id}, id != ""
	}
}

// RateLimit returns a middleware that runs the tiers in order and rejects
// the request at the first tier that denies it
func RateLimit(limiter *ratelimit.Limiter, tiers ...Tier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checks := make([]ratelimit.Check, 0, len(tiers))
			for _, tier := range tiers {
				if c, ok := tier(r); ok {
					checks = append(checks, c)
				}
			}
			if len(checks) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			d := limiter.CheckAll(checks...)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("X-RateLimit-Scope", string(d.Scope))

				p := model.NewRateLimitError(retryAfter)
				p.Instance = r.URL.Path
				p.WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the originating client address: the first
// X-Forwarded-For entry, then X-Real-IP, then the connection's remote
// address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
