// Package handlers exposes the ledger over HTTP.
//
// Responsibilities:
//   - decode path, query and JSON input
//   - call the ledger, milestone and report services
//   - translate service errors into the ErrorResponse envelope
//   - serve conditional responses (ETag) and idempotent replays
//
// All routes below /users/:address run after middleware.Address, which has
// already validated and lower-cased the address.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/http/middleware"
	"github.com/tbourn/alive28-ledger/internal/repo"
	"github.com/tbourn/alive28-ledger/internal/services"
	"github.com/tbourn/alive28-ledger/internal/tasks"
	"github.com/tbourn/alive28-ledger/internal/utils"
)

// LedgerService is the check-in ledger used by the handlers.
type LedgerService interface {
	HomeSnapshot(ctx context.Context, address string) (*services.HomeSnapshot, error)
	DailySnapshot(ctx context.Context, address string, day int) (*services.DailySnapshot, error)
	Checkin(ctx context.Context, address string, day int, text string) (*services.CheckinResult, error)
	SubmitProof(ctx context.Context, address, txHash string) (*domain.DailyLog, error)
	MintDay(ctx context.Context, address, txHash string) (*domain.DailyLog, error)
	Progress(ctx context.Context, address string) (*services.Progress, error)
	SetTimezone(ctx context.Context, address, tz string) (*domain.User, error)
	VerifyLog(ctx context.Context, id string) (*services.VerifyResult, error)
}

// MilestoneService is the milestone gate used by the handlers.
type MilestoneService interface {
	MintMilestone(ctx context.Context, address string, id int, txHash string) (*domain.User, error)
	ComposeFinal(ctx context.Context, address, txHash string) (*domain.User, error)
}

// ReportService builds week and final reports.
type ReportService interface {
	Report(ctx context.Context, address, rng string) (*services.Report, error)
}

// TaskCatalog resolves the prompt of a challenge day.
type TaskCatalog interface {
	Lookup(day int) (tasks.Task, bool)
}

// Handlers wires the services to Gin.
type Handlers struct {
	ledger     LedgerService
	milestones MilestoneService
	reports    ReportService
	catalog    TaskCatalog

	// IdempotencyTTL bounds how long an Idempotency-Key replays its result.
	IdempotencyTTL time.Duration
}

// New constructs Handlers.
func New(ledger LedgerService, milestones MilestoneService, reports ReportService, catalog TaskCatalog) *Handlers {
	return &Handlers{
		ledger:         ledger,
		milestones:     milestones,
		reports:        reports,
		catalog:        catalog,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// CheckinRequest is the body of POST /users/{address}/checkins.
type CheckinRequest struct {
	// Day the client believes it is; 0 accepts the server's computation.
	DayIndex int    `json:"dayIndex" example:"3"`
	Text     string `json:"text" example:"Walked to the river and wrote three lines."`
}

// TxRequest carries an optional on-chain transaction hash.
type TxRequest struct {
	TxHash string `json:"txHash,omitempty" example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
}

// TimezoneRequest is the body of PUT /users/{address}/timezone.
type TimezoneRequest struct {
	Timezone string `json:"timezone" example:"Europe/Athens"`
}

// address returns the caller's normalized address.
func address(c *gin.Context) string { return middleware.AddressFrom(c) }

// bindOptional decodes a JSON body that may be absent.
func bindOptional(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// dayParam parses a 1-based day path parameter.
func dayParam(c *gin.Context, name string) (int, bool) {
	day, valid := utils.DayIndex(c.Param(name), calendar.ChallengeDays)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDay, services.ErrInvalidDay.Error())
		return 0, false
	}
	return day, true
}

// db returns the storage handle behind the ledger service, or nil when the
// service is not the GORM-backed implementation (e.g. a test stub).
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.ledger.(*services.LedgerService); ok {
		return svc.DB
	}
	return nil
}

// GetHome godoc
// @ID          getHome
// @Summary     Home snapshot
// @Description Label and target of the "continue" button plus the start and today date keys.
// @Tags        Ledger
// @Produce     json
//
// @Param       address  path  string  true  "Wallet address"  example(0x8ba1f109551bd432803012645ac136ddd64dba72)
//
// @Success     200  {object} services.HomeSnapshot
// @Failure     400  {object} handlers.ErrorResponse "Invalid address"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/home [get]
func (h *Handlers) GetHome(c *gin.Context) {
	snap, err := h.ledger.HomeSnapshot(c.Request.Context(), address(c))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// GetDaily godoc
// @ID          getDaily
// @Summary     Daily snapshot
// @Description Task, date key and (when present) the log of one challenge day.
// @Tags        Ledger
// @Produce     json
//
// @Param       address  path  string  true  "Wallet address"
// @Param       day      path  int     true  "Challenge day"  minimum(1) maximum(28)
//
// @Success     200  {object} services.DailySnapshot
// @Failure     400  {object} handlers.ErrorResponse "Invalid address or day"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/daily/{day} [get]
func (h *Handlers) GetDaily(c *gin.Context) {
	day, okDay := dayParam(c, "day")
	if !okDay {
		return
	}
	snap, err := h.ledger.DailySnapshot(c.Request.Context(), address(c), day)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// PostCheckin godoc
// @ID          postCheckin
// @Summary     Record today's check-in
// @Description Seals today's text with a salted proof hash. A repeated call on the same day returns the stored log with alreadyCheckedIn=true.
// @Tags        Ledger
// @Accept      json
// @Produce     json
//
// @Param       address  path  string                    true  "Wallet address"
// @Param       body     body  handlers.CheckinRequest  true  "Check-in"
//
// @Success     201  {object} services.CheckinResult "Created"
// @Success     200  {object} services.CheckinResult "Already checked in"
// @Failure     400  {object} handlers.ErrorResponse "Empty text or bad body"
// @Failure     409  {object} handlers.ErrorResponse "Day index mismatch"
// @Failure     422  {object} handlers.ErrorResponse "Today is outside the challenge"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/checkins [post]
func (h *Handlers) PostCheckin(c *gin.Context) {
	var req CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON with text")
		return
	}
	if req.DayIndex < 0 || req.DayIndex > calendar.ChallengeDays {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDay, services.ErrInvalidDay.Error())
		return
	}
	res, err := h.ledger.Checkin(c.Request.Context(), address(c), req.DayIndex, req.Text)
	if err != nil {
		failWith(c, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyCheckedIn {
		status = http.StatusOK
	}
	ok(c, status, res)
}

// PostProof godoc
// @ID          postProof
// @Summary     Submit today's proof
// @Description Records the proof transaction on today's log. Without txHash a simulated hash is used when enabled.
// @Tags        Ledger
// @Accept      json
// @Produce     json
//
// @Param       address          path    string              true   "Wallet address"
// @Param       Idempotency-Key  header  string              false  "Replays the recorded result"
// @Param       body             body    handlers.TxRequest  false  "Transaction"
//
// @Success     200  {object} domain.DailyLog
// @Failure     400  {object} handlers.ErrorResponse "Missing tx hash"
// @Failure     404  {object} handlers.ErrorResponse "No check-in today"
// @Failure     409  {object} handlers.ErrorResponse "Already submitted"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/proof [post]
func (h *Handlers) PostProof(c *gin.Context) {
	h.logTransition(c, h.ledger.SubmitProof)
}

// PostDayMint godoc
// @ID          postDayMint
// @Summary     Mint today's day token
// @Description Requires today's proof. Increments dayMintCount (capped at 28).
// @Tags        Ledger
// @Accept      json
// @Produce     json
//
// @Param       address          path    string              true   "Wallet address"
// @Param       Idempotency-Key  header  string              false  "Replays the recorded result"
// @Param       body             body    handlers.TxRequest  false  "Transaction"
//
// @Success     200  {object} domain.DailyLog
// @Failure     404  {object} handlers.ErrorResponse "No check-in today"
// @Failure     409  {object} handlers.ErrorResponse "Already minted"
// @Failure     422  {object} handlers.ErrorResponse "Proof not submitted"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/day-mints [post]
func (h *Handlers) PostDayMint(c *gin.Context) {
	h.logTransition(c, h.ledger.MintDay)
}

// logTransition runs a one-shot transition on today's log with replay
// support.
func (h *Handlers) logTransition(c *gin.Context, run func(context.Context, string, string) (*domain.DailyLog, error)) {
	if h.replay(c, loadLog) {
		return
	}
	var req TxRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON")
		return
	}
	l, err := run(c.Request.Context(), address(c), req.TxHash)
	if err != nil {
		failWith(c, err)
		return
	}
	h.remember(c, l.ID, http.StatusOK)
	ok(c, http.StatusOK, l)
}

// GetProgress godoc
// @ID          getProgress
// @Summary     Challenge progress
// @Description Derived state: streak, minted days, what can be minted next and the final status. Supports a weak ETag.
// @Tags        Ledger
// @Produce     json
//
// @Param       address        path    string  true   "Wallet address"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object} services.Progress
// @Header      200  {string} ETag "Weak ETag for the current state"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid address"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/progress [get]
func (h *Handlers) GetProgress(c *gin.Context) {
	ctx := c.Request.Context()
	addr := address(c)

	p, err := h.ledger.Progress(ctx, addr)
	if err != nil {
		failWith(c, err)
		return
	}

	// The tag covers the stored rows and today's date key, so the day
	// rollover invalidates it too. Best effort.
	if db := h.db(); db != nil {
		if etag, err := progressETag(ctx, db, addr, p.DateKey); err == nil {
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}
	ok(c, http.StatusOK, p)
}

func progressETag(ctx context.Context, db *gorm.DB, addr, dateKey string) (string, error) {
	count, maxTS, err := repo.LogsStats(ctx, db, addr)
	if err != nil {
		return "", err
	}
	userTS, err := repo.UserUpdatedAt(ctx, db, addr)
	if err != nil {
		return "", err
	}
	var lts, uts int64
	if maxTS != nil {
		lts = maxTS.UnixNano()
	}
	if userTS != nil {
		uts = userTS.UnixNano()
	}
	return fmt.Sprintf(`W/"progress:%s:%s:%d:%d:%d"`, addr, dateKey, count, lts, uts), nil
}

// PutTimezone godoc
// @ID          putTimezone
// @Summary     Set the user's timezone
// @Description Allowed until the first check-in; afterwards the challenge calendar is fixed.
// @Tags        Ledger
// @Accept      json
// @Produce     json
//
// @Param       address  path  string                     true  "Wallet address"
// @Param       body     body  handlers.TimezoneRequest  true  "IANA zone"
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid timezone"
// @Failure     409  {object} handlers.ErrorResponse "Timezone locked"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/timezone [put]
func (h *Handlers) PutTimezone(c *gin.Context) {
	var req TimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Timezone) == "" {
		fail(c, http.StatusBadRequest, ErrCodeInvalidTimezone, "timezone required")
		return
	}
	u, err := h.ledger.SetTimezone(c.Request.Context(), address(c), strings.TrimSpace(req.Timezone))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetTask godoc
// @ID          getTask
// @Summary     Prompt of a challenge day
// @Tags        Tasks
// @Produce     json
//
// @Param       day  path  int  true  "Challenge day"  minimum(1) maximum(28)
//
// @Success     200  {object} tasks.Task
// @Failure     400  {object} handlers.ErrorResponse "Invalid day"
// @Router      /tasks/{day} [get]
func (h *Handlers) GetTask(c *gin.Context) {
	day, okDay := dayParam(c, "day")
	if !okDay {
		return
	}
	t, found := h.catalog.Lookup(day)
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "task not found")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	ok(c, http.StatusOK, t)
}

// GetVerify godoc
// @ID          getVerify
// @Summary     Verify a stored proof
// @Description Recomputes keccak256(dateKey|text|salt) and compares it with the stored proof hash.
// @Tags        Proofs
// @Produce     json
//
// @Param       id  path  string  true  "Log ID (UUID)"  format(uuid)
//
// @Success     200  {object} services.VerifyResult
// @Failure     404  {object} handlers.ErrorResponse "Log not found"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /logs/{id}/verify [get]
func (h *Handlers) GetVerify(c *gin.Context) {
	res, err := h.ledger.VerifyLog(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
