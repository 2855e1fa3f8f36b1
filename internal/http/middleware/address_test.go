package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func lowerHex(s string) (string, error) {
	s = strings.ToLower(s)
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return "", errors.New("invalid address")
	}
	return s, nil
}

func TestAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	g := r.Group("/users/:address", Address(lowerHex))
	g.GET("/home", func(c *gin.Context) {
		c.String(http.StatusOK, AddressFrom(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/"+addrMixed+"/home", nil))
	if w.Code != http.StatusOK || w.Body.String() != addrLower {
		t.Fatalf("valid address: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/nope/home", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid address: expected 400, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "invalid_address" || body["request_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}
