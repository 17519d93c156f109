package handler

import (
	"net/http"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/migration"
	"github.com/mcoot/chargedblocks/internal/services/binding"
)

// SystemHandler handles health and operator endpoints
type SystemHandler struct {
	bindings    *binding.Service
	migration   *migration.Engine
	storageType string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(bindings *binding.Service, engine *migration.Engine, storageType string) *SystemHandler {
	return &SystemHandler{
		bindings:    bindings,
		migration:   engine,
		storageType: storageType,
	}
}

// Health handles GET /api/v1/health
// A disabled registry still reports ok; the registry field says why writes
// fail.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	registry := "enabled"
	if !h.bindings.Enabled() {
		registry = "disabled"
	}
	response.JSON(w, http.StatusOK, response.Health{
		Status:   "ok",
		Registry: registry,
		Storage:  h.storageType,
	})
}

// MigrationStats handles GET /api/v1/migration/stats
func (h *SystemHandler) MigrationStats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.MigrationStats{
		Stats: h.migration.Stats(),
		Valid: h.migration.Validate(),
	})
}
