package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}

func healthRecorder(h *HealthHandler) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/health", h.Health)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	return rr
}

func TestHealth_Up(t *testing.T) {
	RegisterTestingT(t)

	rr := healthRecorder(NewHealthHandler(stubPinger{}))

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`{"status":"ok","database":"up"}`))
}

func TestHealth_DatabaseDown(t *testing.T) {
	RegisterTestingT(t)

	rr := healthRecorder(NewHealthHandler(stubPinger{err: errors.New("connection refused")}))

	Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(rr.Body.String()).To(MatchJSON(`{"status":"unavailable","database":"down"}`))
}
