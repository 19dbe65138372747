package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    []HealthCheck
	timeout   time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(name, version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// HealthResponse represents the health report
type HealthResponse struct {
	Status    string            `json:"status"`
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health runs every check. Any failure answers 503.
//
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=handler.HealthResponse}
// @Failure      503 {object} dto.Response{data=handler.HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			resp.Checks[check.Name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "healthy"
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
