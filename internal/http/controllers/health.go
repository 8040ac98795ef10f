package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/easelhq/easel/internal/cache"
	"github.com/easelhq/easel/internal/http/helpers"
	"github.com/easelhq/easel/internal/observability/logger"
	"github.com/easelhq/easel/internal/store/core"
)

// HealthController maneja /healthz y /readyz. Liveness no toca nada;
// readiness hace ping a los componentes y degrada según cuál falle.
type HealthController struct {
	kv    core.KV
	cache cache.Client
}

func NewHealthController(kv core.KV, c cache.Client) *HealthController {
	return &HealthController{kv: kv, cache: c}
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	ctx := r.Context()

	resp := healthResponse{
		Status:     "ready",
		Components: make(map[string]componentStatus),
		Timestamp:  time.Now().UTC(),
	}

	// Storage es crítico: sin él no se sirve nada.
	if err := c.kv.Ping(ctx); err != nil {
		resp.Components["storage"] = componentStatus{
			Status:  "error",
			Message: fmt.Sprintf("unavailable: %v", err),
		}
		resp.Status = "unavailable"
		logger.From(ctx).Error("storage unavailable", logger.Err(err))
	} else {
		resp.Components["storage"] = componentStatus{Status: "ok"}
	}

	// El cache degrada pero no tumba el nodo.
	if c.cache == nil {
		resp.Components["cache"] = componentStatus{Status: "disabled"}
	} else if err := c.cache.Ping(ctx); err != nil {
		resp.Components["cache"] = componentStatus{
			Status:  "error",
			Message: fmt.Sprintf("unavailable: %v", err),
		}
		if resp.Status == "ready" {
			resp.Status = "degraded"
		}
		logger.From(ctx).Warn("cache unavailable", logger.Err(err))
	} else {
		resp.Components["cache"] = componentStatus{Status: "ok"}
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
