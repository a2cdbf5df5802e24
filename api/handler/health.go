package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/api/transport"
	"github.com/hybridui/suite/internal/infrastructure/monitor"
	"github.com/hybridui/suite/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// Check reports service liveness. Clients use this as a cheap availability
// probe before attempting a login. The endpoint always answers 200 so a
// reachable service is never mistaken for a down one; a session store outage
// shows up in the status field instead.
// GET /health
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	payload := transport.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	if h.monitor != nil && !h.monitor.IsOnline() {
		payload.Status = "degraded"
	}
	h.respondJSON(ctx, http.StatusOK, payload)
}
