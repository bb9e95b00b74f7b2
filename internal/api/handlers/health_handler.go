package handlers

import (
	"net/http"

	"github.com/reunite-hq/reunite/internal/api/response"
)

// DegradedReporter reports whether the feature extractor has entered
// degraded mode.
type DegradedReporter interface {
	Degraded() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	extractor DegradedReporter
}

// NewHealthHandler creates a new health handler. extractor may be nil when
// matching is not wired (CLI tools).
func NewHealthHandler(extractor DegradedReporter) *HealthHandler {
	return &HealthHandler{extractor: extractor}
}

// Check handles GET /health. The process is healthy even when matching is
// degraded; the matching field tells operators which mode it is in.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	matchingStatus := "ok"
	if h.extractor != nil && h.extractor.Degraded() {
		matchingStatus = "degraded"
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"matching": matchingStatus,
	})
}
