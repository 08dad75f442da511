package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/producehub/producehub-backend/api/responses"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/logger"
	pkgredis "github.com/producehub/producehub-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	standardReplayTTL = 24 * time.Hour
	extendedReplayTTL = 7 * 24 * time.Hour
	inFlightTTL       = time.Minute

	inFlightMarker = "in-flight"
)

// inFlightRefresh is how often a running request extends its marker.
var inFlightRefresh = inFlightTTL / 3

// guardedRoute is a POST endpoint that requires an Idempotency-Key. Segments
// written as {} match any single path segment.
type guardedRoute struct {
	template string
	ttl      time.Duration
}

var guardedRoutes = []guardedRoute{
	{"/api/v1/auth/register", standardReplayTTL},
	{"/api/v1/orders", standardReplayTTL},
	{"/api/v1/legal-documents", standardReplayTTL},
	{"/api/admin/v1/orders", standardReplayTTL},
	{"/api/admin/v1/pre-orders", standardReplayTTL},
	{"/api/admin/v1/trips", standardReplayTTL},
	{"/api/admin/v1/cheques", standardReplayTTL},
	{"/api/admin/v1/members", standardReplayTTL},
	{"/api/admin/v1/route-plans/{}/save", standardReplayTTL},
	{"/api/admin/v1/legal-documents/{}/verify", standardReplayTTL},
	{"/api/admin/v1/legal-documents/{}/reject", standardReplayTTL},

	{"/api/admin/v1/payments", extendedReplayTTL},
	{"/api/admin/v1/stores/{}/approve", extendedReplayTTL},
	{"/api/admin/v1/stores/{}/reject", extendedReplayTTL},
	{"/api/admin/v1/cheques/{}/status", extendedReplayTTL},
	{"/api/admin/v1/pre-orders/{}/convert", extendedReplayTTL},
	{"/api/v1/orders/{}/cancel", extendedReplayTTL},
	{"/api/admin/v1/orders/{}/cancel", extendedReplayTTL},
}

// storedResponse is what a replay writes back. Body round-trips through JSON
// as base64.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency guards the routes in guardedRoutes. The first request for a key
// holds an in-flight marker while it runs, extending it until the handler
// returns. A 2xx response replaces the marker with the stored response and
// anything else clears it so the client can retry with the same key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := replayTTL(r.Method, requestRoute(r))
			if !guarded {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := fingerprintBody(body)
			key := store.IdempotencyKey(keyScope(r), clientKey)

			claimed, err := store.SetNX(ctx, key, inFlightMarker, inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayExisting(ctx, store, logg, w, key, fingerprint)
				return
			}

			// the outcome must be recorded even if the client goes away
			storeCtx := context.WithoutCancel(ctx)
			release := holdInFlight(storeCtx, store, logg, key)
			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			release()

			status := capture.statusCode()
			if status < 200 || status >= 300 {
				if err := store.Del(storeCtx, key); err != nil {
					logError(ctx, logg, "release idempotency key", err)
				}
				return
			}
			payload, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			})
			if err == nil {
				err = store.Set(storeCtx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "store idempotent response", err)
			}
		})
	}
}

// holdInFlight extends the in-flight marker every inFlightRefresh until the
// returned func is called. The func blocks until the refresher has exited.
func holdInFlight(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, key string) func() {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(inFlightRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if _, err := store.Expire(ctx, key, inFlightTTL); err != nil {
					logError(ctx, logg, "refresh idempotency key", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

func replayExisting(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, fingerprint string) {
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, pkgredis.Nil):
		// the holder failed and released the key between our claim and read
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key was just released; retry"))
		return
	case err != nil:
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency key"))
		return
	case raw == inFlightMarker:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotent response"))
		return
	}
	if stored.Fingerprint != fingerprint {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// keyScope binds a client key to the caller and the concrete path, so two
// users sending the same key never see each other's responses.
func keyScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{UserIDFromContext(ctx), StoreIDFromContext(ctx), r.Method, r.URL.Path}, "|")
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// requestRoute returns the chi pattern once routing has resolved it. While a
// group's middleware runs the pattern still ends in /*, so the raw path is
// used instead; templates match both forms.
func requestRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return strings.TrimSuffix(r.URL.Path, "/")
}

func replayTTL(method, route string) (time.Duration, bool) {
	if method != http.MethodPost || route == "" {
		return 0, false
	}
	for _, g := range guardedRoutes {
		if matchTemplate(g.template, route) {
			return g.ttl, true
		}
	}
	return 0, false
}

func matchTemplate(template, route string) bool {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(route, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, segment := range want {
		if segment == "{}" {
			if got[i] == "" {
				return false
			}
			continue
		}
		if segment != got[i] {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
