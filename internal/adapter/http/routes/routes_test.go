package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapp/internal/adapter/database/memory"
	"taskapp/internal/adapter/database/sqlite/repository"
	"taskapp/internal/adapter/http/handler"
	"taskapp/internal/adapter/http/middleware"
	"taskapp/internal/adapter/http/validation"
	"taskapp/internal/adapter/telemetry"
	"taskapp/internal/core/service"
	"taskapp/pkg/auth"
	"taskapp/pkg/config"
	"taskapp/pkg/logger"
	. "taskapp/pkg/test"
	"taskapp/pkg/test/factory"
)

func setup(t *testing.T, rules map[string]config.RateLimitRule, opts ...func(*Dependencies)) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)

	db := InitTestDB()
	t.Cleanup(func() { CloseDB(t, db.DB) })

	cfg := config.GetDefaultConfig()
	jwt := auth.New(cfg.JWT)

	users := repository.NewUserRepository(db, nil)
	tasks := repository.NewTaskRepository(db, nil)

	user, err := users.Create(t.Context(), factory.NewUser(map[string]any{"Username": "john"}))
	require.NoError(t, err)

	token, err := jwt.CreateToken(user.ID)
	require.NoError(t, err)

	log := logger.NewNop()
	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())

	deps := Dependencies{
		Resolver:    service.NewPrincipalResolver(jwt, users),
		RateLimiter: middleware.NewRateLimiter(memory.NewRateLimitStore(), rules, log.Zap(), metrics),
		Metrics:     metrics,
		Logger:      log,
		Config:      cfg,
	}

	for _, opt := range opts {
		opt(&deps)
	}

	router := SetupRouter(HandlersConfig{
		TaskHandler:   handler.NewTaskHandler(service.NewTaskService(tasks, validation.New(), nil), log),
		HealthHandler: handler.NewHealthHandler(db),
	}, deps)

	return router, token
}

func serve(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr
}

func TestHealth(t *testing.T) {
	router, _ := setup(t, config.DefaultRateLimitRules())

	rr := serve(router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestTaskLifecycle(t *testing.T) {
	router, token := setup(t, config.DefaultRateLimitRules())

	created := serve(router, http.MethodPost, "/tasks", token, `{"title":"x"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	var task struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &task))

	path := "/tasks/" + strconv.FormatInt(task.ID, 10)

	patched := serve(router, http.MethodPatch, path, token, `{"completed":true}`)
	assert.Equal(t, http.StatusOK, patched.Code)
	assert.Contains(t, patched.Body.String(), `"completed":true`)

	replaced := serve(router, http.MethodPut, path, token, `{"title":"y"}`)
	assert.Equal(t, http.StatusOK, replaced.Code)

	listed := serve(router, http.MethodGet, "/tasks", token, "")
	assert.Equal(t, http.StatusOK, listed.Code)
	assert.Contains(t, listed.Body.String(), `"title":"y"`)
	assert.Equal(t, "100", listed.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/tasks/hey", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/tasks", "", `{"title":"x"}`).Code)
}

func TestRateLimit(t *testing.T) {
	router, token := setup(t, map[string]config.RateLimitRule{
		"POST /tasks": {Requests: 2, Window: time.Minute, ByUser: true},
		"default":     {Requests: 100, Window: time.Minute},
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/tasks", token, `{"title":"x"}`).Code)
	}

	limited := serve(router, http.MethodPost, "/tasks", token, `{"title":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/tasks", token, "").Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setup(t, config.DefaultRateLimitRules())

	rr := serve(router, http.MethodOptions, "/tasks", "", "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func anonymousList(router *gin.Engine, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.Header.Set("X-Real-IP", forwardedFor)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr.Code
}

func TestRateLimit_ForwardedForFromUntrustedPeer(t *testing.T) {
	router, _ := setup(t, map[string]config.RateLimitRule{
		"default": {Requests: 1, Window: time.Minute},
	})

	assert.Equal(t, http.StatusOK, anonymousList(router, "203.0.113.7:4000", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, anonymousList(router, "203.0.113.7:4000", "10.0.0.2"))
}

func TestRateLimit_ForwardedForFromTrustedProxy(t *testing.T) {
	router, _ := setup(t, map[string]config.RateLimitRule{
		"default": {Requests: 1, Window: time.Minute},
	}, func(deps *Dependencies) {
		deps.Config.Server.TrustedProxies = []string{"203.0.113.0/24"}
	})

	assert.Equal(t, http.StatusOK, anonymousList(router, "203.0.113.7:4000", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, anonymousList(router, "203.0.113.7:4000", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, anonymousList(router, "203.0.113.7:4000", "10.0.0.1"))
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	router, token := setup(t, config.DefaultRateLimitRules(), func(deps *Dependencies) {
		deps.Metrics = metrics
		deps.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	})

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/tasks", token, "").Code)

	rr := serve(router, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestMetricsEndpoint_NotMounted(t *testing.T) {
	router, _ := setup(t, config.DefaultRateLimitRules())

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics", "", "").Code)
}
