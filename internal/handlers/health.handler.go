package handlers

import (
	"github.com/fasthttp/router"
	xhttp "github.com/shivamprakash2909/loan-app/pkg/http"
)

type HealthService interface {
	Get() error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Get(); err != nil {
		writeError(ctx, 503, "database unreachable")
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "ok"})
}
