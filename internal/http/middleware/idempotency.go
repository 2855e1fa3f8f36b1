// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the mutating ledger routes
// (proof submission, day mints, milestones, final composition). It validates
// an Idempotency-Key request header, looks up a previously recorded result
// for (address, scope, key) and annotates the request context so handlers
// can:
//   - read the validated key (GetIdempotencyKey) and its scope
//     (IdempotencyScope)
//   - detect replays and fetch the recorded resource (ReplayResource)
//   - skip rate limiting for replays (via an internal flag)
//
// Persistence stays behind the IdempotencyLookup function type; the handler
// decides how a recorded resource is rendered.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed marks responses served from a recorded result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemScope    = "idem.scope"
	ctxKeyIdemReplay   = "idem.replay"   // bool: a recorded result exists
	ctxKeyIdemResource = "idem.resource" // string: id of the recorded resource
	ctxKeyIdemStatus   = "idem.status"   // int: status of the recorded response
	ctxKeyRateBypass   = "rate.bypass"   // bool: skip rate limiting
)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope returns the scope the key was checked under, or "" when
// the request carries no usable key. Results must be recorded under it.
func IdempotencyScope(c *gin.Context) string {
	return c.GetString(ctxKeyIdemScope)
}

// IsReplay reports whether a recorded result exists for this request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ReplayResource returns the resource id and status recorded for a replayed
// request.
func ReplayResource(c *gin.Context) (resourceID string, status int, ok bool) {
	if !IsReplay(c) {
		return "", 0, false
	}
	resourceID = c.GetString(ctxKeyIdemResource)
	status = c.GetInt(ctxKeyIdemStatus)
	if status == 0 {
		status = http.StatusOK
	}
	return resourceID, status, resourceID != ""
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope narrows the route template for address, e.g. to the caller's
	// current date so a key reused on a later day is not a replay. An empty
	// result disables replay for the request. Nil scopes by route alone.
	Scope func(c *gin.Context, address string) string
}

// Recorded is a previously completed response.
type Recorded struct {
	ResourceID string
	Status     int
}

// IdempotencyLookup returns the recorded result for (address, scope, key) at
// now, or nil when none exists. scope is the matched route template, suffixed
// with "@" and the IdempotencyOptions.Scope value when one is configured.
// Expiry is the lookup's concern. Errors never block normal processing.
type IdempotencyLookup func(ctx context.Context, address, scope, key string, now time.Time) (*Recorded, error)

// IdempotencyValidator validates the Idempotency-Key header of unsafe
// requests, stashes it and consults lookup for a recorded result.
//
// Behavior:
//   - Safe methods (GET, HEAD, OPTIONS) and requests without the header pass
//     through untouched.
//   - An invalid key is rejected with 400 bad_idempotency_key.
//   - A recorded result marks the request as a replay and bypasses rate
//     limiting. The handler serves the recorded resource.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		addr := addressFromCtx(c)
		scope := idempotencyScope(c, opts.Scope, addr)
		if scope != "" {
			c.Set(ctxKeyIdemScope, scope)
		}
		if lookup != nil && scope != "" {
			rec, err := lookup(c.Request.Context(), addr, scope, key, time.Now().UTC())
			if err == nil && rec != nil {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemResource, rec.ResourceID)
				c.Set(ctxKeyIdemStatus, rec.Status)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

func idempotencyScope(c *gin.Context, narrow func(*gin.Context, string) string, addr string) string {
	route := c.FullPath()
	if addr == "" || route == "" {
		return ""
	}
	if narrow == nil {
		return route
	}
	suffix := narrow(c, addr)
	if suffix == "" {
		return ""
	}
	return route + "@" + suffix
}

// addressFromCtx returns the caller's address: the value stored by Address
// when it already ran, otherwise the lower-cased :address path parameter.
// Global middleware runs before the route group's Address check, so the
// parameter is the usual source here.
func addressFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyAddress); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return strings.ToLower(strings.TrimSpace(c.Param("address")))
}
