package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/http/middleware"
	"github.com/tbourn/alive28-ledger/internal/repo"
)

// resourceLoader fetches the current state of a recorded resource.
type resourceLoader func(ctx context.Context, db *gorm.DB, id string) (any, error)

func loadLog(ctx context.Context, db *gorm.DB, id string) (any, error) {
	return repo.GetLog(ctx, db, id)
}

func loadUser(ctx context.Context, db *gorm.DB, id string) (any, error) {
	return repo.GetUser(ctx, db, id)
}

// replay serves the recorded resource when IdempotencyValidator found one
// and reports whether the response was written. A recorded resource that
// can no longer be loaded falls through to normal processing.
func (h *Handlers) replay(c *gin.Context, load resourceLoader) bool {
	id, status, found := middleware.ReplayResource(c)
	db := h.db()
	if !found || db == nil {
		return false
	}
	v, err := load(c.Request.Context(), db, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotent replay failed")
		}
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	ok(c, status, v)
	return true
}

// remember records the outcome of a successful request carrying an
// Idempotency-Key under the scope it was checked with. Best effort: a
// concurrent duplicate keeps the first record.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	db := h.db()
	if !has || scope == "" || db == nil {
		return
	}
	ttl := h.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), db, address(c), scope, key, resourceID, status, ttl)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}
