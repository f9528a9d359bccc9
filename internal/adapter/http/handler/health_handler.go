package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskapp/internal/core/model/response"
)

// Pinger is satisfied by *sql.DB and the postgres pool wrapper.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable", Database: "down"})
			return
		}
	}

	c.JSON(http.StatusOK, response.HealthResponse{Status: "ok", Database: "up"})
}
