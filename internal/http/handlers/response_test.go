package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_4xx_NotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) { c.Set("logger", &logger); c.Next() })
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("unexpected: %d %s", w.Code, w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx must not be logged: %s", buf.String())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidAddress, 400, ErrCodeInvalidAddress},
		{services.ErrInvalidDay, 400, ErrCodeInvalidDay},
		{services.ErrEmptyText, 400, ErrCodeEmptyText},
		{services.ErrInvalidRange, 400, ErrCodeInvalidRange},
		{services.ErrInvalidMilestone, 400, ErrCodeInvalidMilestone},
		{services.ErrInvalidTimezone, 400, ErrCodeInvalidTimezone},
		{services.ErrMissingTxHash, 400, ErrCodeMissingTxHash},
		{services.ErrMissingCheckin, 404, ErrCodeMissingCheckin},
		{services.ErrLogNotFound, 404, ErrCodeLogNotFound},
		{services.ErrAlreadySubmitted, 409, ErrCodeAlreadySubmitted},
		{services.ErrAlreadyMinted, 409, ErrCodeAlreadyMinted},
		{services.ErrTimezoneLocked, 409, ErrCodeTimezoneLocked},
		{fmt.Errorf("%w: requested 2, today is day 3", services.ErrDayIndexMismatch), 409, ErrCodeDayIndexMismatch},
		{services.ErrProofNotSubmitted, 422, ErrCodeProofNotSubmitted},
		{fmt.Errorf("%w: 6 of 7 days", services.ErrInsufficientDays), 422, ErrCodeInsufficientDays},
		{services.ErrDayOutOfRange, 422, ErrCodeDayOutOfRange},
		{fmt.Errorf("%w: database is locked", services.ErrStorageUnavailable), 503, ErrCodeStorageUnavailable},
		{context.DeadlineExceeded, 503, ErrCodeTimeout},
		{fmt.Errorf("%w: %q", calendar.ErrInvalidDateKey, "garbage"), 500, ErrCodeInternal},
		{errors.New("surprise"), 500, ErrCodeInternal},
	}
	for _, tc := range cases {
		status, code, _ := classify(tc.err)
		if status != tc.status || code != tc.code {
			t.Errorf("classify(%v) = %d %s; want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestClassify_Messages(t *testing.T) {
	_, _, msg := classify(fmt.Errorf("%w: 6 of 7 days", services.ErrInsufficientDays))
	if msg != "not enough completed days: 6 of 7 days" {
		t.Fatalf("4xx keeps the detail, got %q", msg)
	}
	_, _, msg = classify(fmt.Errorf("%w: dial tcp 10.0.0.7:3306: refused", services.ErrStorageUnavailable))
	if msg != "storage unavailable" {
		t.Fatalf("5xx hides driver detail, got %q", msg)
	}
	_, _, msg = classify(errors.New("secret internals"))
	if msg != "internal server error" {
		t.Fatalf("unknown errors are generic, got %q", msg)
	}
}
