package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/smaile/internal/app"
	"github.com/okian/smaile/pkg/logger"
)

// maxSettingsBody caps the request body of a settings change.
const maxSettingsBody = 4 << 10

// SettingsHandler handles settings requests.
type SettingsHandler struct {
	controller SettingsController
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(controller SettingsController) *SettingsHandler {
	return &SettingsHandler{controller: controller}
}

// HandleSettings serves GET /settings and applies PUT or PATCH /settings.
// Both write verbs take a partial document; absent keys are left alone.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.controller.Settings())
	case http.MethodPut, http.MethodPatch:
		h.update(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT, PATCH")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch app.SettingsPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "empty_patch", ErrEmptyPatch)
		return
	}

	settings, err := h.controller.UpdateSettings(ctx, patch)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, settings)
	case errors.Is(err, app.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, "invalid_settings", err)
	case errors.Is(err, app.ErrLoopStopped):
		writeError(w, http.StatusServiceUnavailable, "loop_stopped", err)
	default:
		logger.Get().Error(ctx, "settings update failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
