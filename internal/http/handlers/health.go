package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mdb-curator/internal/http/response"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	graph healthChecker
}

func NewHealthHandler(graph healthChecker) *HealthHandler { return &HealthHandler{graph: graph} }

// GET /healthz
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.graph != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.graph.Health(ctx); err != nil {
			response.RespondError(c, http.StatusServiceUnavailable, "graph_unavailable", err)
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
