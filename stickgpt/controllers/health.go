package controllers

import (
	"encoding/json"
	"net/http"

	"stickgpt/stickgpt/sources/kv"
	"stickgpt/stickgpt/utils/logging"

	"go.uber.org/zap"
)

// checkEntry is read on every health check; it never needs to exist.
const checkEntry = "stickgpt_health_check"

type HealthController struct {
	backend string
	storage kv.Storage
}

func NewHealthController(backend string, storage kv.Storage) *HealthController {
	return &HealthController{backend: backend, storage: storage}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	switch h.storage.(type) {
	case nil, kv.Unavailable:
		// nothing can be persisted
		status, code = "unavailable", http.StatusServiceUnavailable
	default:
		if _, _, err := h.storage.Get(r.Context(), checkEntry); err != nil {
			logging.ErrorLogger.Error("health check failed", zap.String("backend", h.backend), zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status, "storage": h.backend})
}
