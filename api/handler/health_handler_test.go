package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/api/transport"
	"github.com/hybridui/suite/internal/infrastructure/monitor"
	"github.com/hybridui/suite/pkg/httpcontext"
)

func healthCheck(t *testing.T, h *HealthHandler) transport.HealthResponse {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/health")
	h.Check(ctx)

	// Availability probes rely on the endpoint never answering non-200.
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var payload transport.HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &payload))
	return payload
}

func TestHealthCheckReportsOK(t *testing.T) {
	h := NewHealthHandler(nil, httpcontext.NewAdapter(time.Second), zap.NewNop())
	payload := healthCheck(t, h)
	assert.Equal(t, "ok", payload.Status)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestHealthCheckStays200WhenStoreOffline(t *testing.T) {
	// A monitor with no reachable store reports offline.
	mon := monitor.New(nil, time.Second, zap.NewNop())

	h := NewHealthHandler(mon, httpcontext.NewAdapter(time.Second), zap.NewNop())
	payload := healthCheck(t, h)
	assert.Equal(t, "degraded", payload.Status)
}
