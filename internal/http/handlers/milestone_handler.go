package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/alive28-ledger/internal/services"
)

// PostMilestone godoc
// @ID          postMilestone
// @Summary     Mint a milestone badge
// @Description Milestones 1, 2 and 3 unlock after 7, 14 and 28 distinct check-in days.
// @Tags        Milestones
// @Accept      json
// @Produce     json
//
// @Param       address          path    string              true   "Wallet address"
// @Param       id               path    int                 true   "Milestone"  Enums(1, 2, 3)
// @Param       Idempotency-Key  header  string              false  "Replays the recorded result"
// @Param       body             body    handlers.TxRequest  false  "Transaction"
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid milestone"
// @Failure     409  {object} handlers.ErrorResponse "Already minted"
// @Failure     422  {object} handlers.ErrorResponse "Not enough days"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/milestones/{id} [post]
func (h *Handlers) PostMilestone(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidMilestone, services.ErrInvalidMilestone.Error())
		return
	}
	if h.replay(c, loadUser) {
		return
	}
	var req TxRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON")
		return
	}
	u, err := h.milestones.MintMilestone(c.Request.Context(), address(c), id, req.TxHash)
	if err != nil {
		failWith(c, err)
		return
	}
	h.remember(c, u.Address, http.StatusOK)
	ok(c, http.StatusOK, u)
}

// PostFinal godoc
// @ID          postFinal
// @Summary     Compose the final token
// @Description Requires 28 check-in days and a day mint for every day 1..28. One-way.
// @Tags        Milestones
// @Accept      json
// @Produce     json
//
// @Param       address          path    string              true   "Wallet address"
// @Param       Idempotency-Key  header  string              false  "Replays the recorded result"
// @Param       body             body    handlers.TxRequest  false  "Transaction"
//
// @Success     200  {object} domain.User
// @Failure     409  {object} handlers.ErrorResponse "Already composed"
// @Failure     422  {object} handlers.ErrorResponse "Not enough days"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/final [post]
func (h *Handlers) PostFinal(c *gin.Context) {
	if h.replay(c, loadUser) {
		return
	}
	var req TxRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON")
		return
	}
	u, err := h.milestones.ComposeFinal(c.Request.Context(), address(c), req.TxHash)
	if err != nil {
		failWith(c, err)
		return
	}
	h.remember(c, u.Address, http.StatusOK)
	ok(c, http.StatusOK, u)
}

// GetReport godoc
// @ID          getReport
// @Summary     Week or final report
// @Tags        Reports
// @Produce     json
//
// @Param       address  path   string  true   "Wallet address"
// @Param       range    query  string  false  "Report range"  Enums(week, final) default(week)
//
// @Success     200  {object} services.Report
// @Failure     400  {object} handlers.ErrorResponse "Invalid range"
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /users/{address}/report [get]
func (h *Handlers) GetReport(c *gin.Context) {
	rng := strings.ToLower(strings.TrimSpace(c.DefaultQuery("range", services.RangeWeek)))
	rep, err := h.reports.Report(c.Request.Context(), address(c), rng)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, rep)
}
