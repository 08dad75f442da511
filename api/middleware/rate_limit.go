package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/producehub/producehub-backend/api/responses"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/logger"
	pkgredis "github.com/producehub/producehub-backend/pkg/redis"
)

const (
	actorRequestLimit  = 600
	actorRequestWindow = time.Minute
)

// bucket is one fixed window a request counts against.
type bucket struct {
	kind   string
	scope  string
	limit  int
	window time.Duration
	label  string // logged in place of scope
}

// RateLimit throttles authenticated traffic per user. Requests without an
// actor pass through; Auth runs first on every group that uses this.
func RateLimit(limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return throttle(limiter, logg, "actor", func(r *http.Request) ([]bucket, error) {
		userID := UserIDFromContext(r.Context())
		if userID == "" {
			return nil, nil
		}
		return []bucket{{kind: "actor", scope: "actor:" + userID, limit: actorRequestLimit, window: actorRequestWindow, label: userID}}, nil
	})
}

// AuthRateLimitPolicy bounds attempts on an unauthenticated auth endpoint.
// A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name     string
	window   time.Duration
	perIP    int
	perEmail int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, perIP, perEmail int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, perIP: perIP, perEmail: perEmail}
}

// AuthRateLimit counts login and registration attempts per client IP and per
// email. The email is read from the JSON body and hashed before it reaches
// Redis or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	if policy.window <= 0 || (policy.perIP <= 0 && policy.perEmail <= 0) {
		return func(next http.Handler) http.Handler { return next }
	}
	return throttle(limiter, logg, policy.name, func(r *http.Request) ([]bucket, error) {
		var buckets []bucket
		if ip := ClientIP(r); policy.perIP > 0 && ip != "" {
			buckets = append(buckets, bucket{kind: "ip", scope: "ip:" + policy.name + ":" + ip, limit: policy.perIP, window: policy.window, label: ip})
		}
		if policy.perEmail <= 0 {
			return buckets, nil
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		if email := emailFromBody(body); email != "" {
			digest := hashValue(email)
			buckets = append(buckets, bucket{kind: "email", scope: "email:" + policy.name + ":" + digest, limit: policy.perEmail, window: policy.window, label: digest})
		}
		return buckets, nil
	})
}

func throttle(limiter pkgredis.RateLimiter, logg *logger.Logger, policy string, resolve func(*http.Request) ([]bucket, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			buckets, err := resolve(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, b := range buckets {
				allowed, count, err := limiter.FixedWindowAllow(ctx, b.scope, int64(b.limit), b.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectThrottled(ctx, logg, w, policy, b, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy string, b bucket, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         policy,
			"scope":          b.kind,
			"key":            b.label,
			"attempts":       count,
			"limit":          b.limit,
			"window_seconds": int(b.window.Seconds()),
		}), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(b.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// ClientIP returns the first parseable address from X-Forwarded-For, then
// X-Real-IP, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
