// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/smaile/internal/app"
)

// StatsProvider exposes loop counters.
type StatsProvider interface {
	Snapshot() app.Stats
}

// SettingsController reads and changes runtime settings. Changes are
// applied by the detection loop between cycles.
type SettingsController interface {
	Settings() app.Settings
	UpdateSettings(ctx context.Context, p app.SettingsPatch) (app.Settings, error)
}

// Server wires HTTP routes for the control surface. No route carries
// expression values.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	settingsHandler *SettingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(stats StatsProvider, settings SettingsController) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(stats),
		settingsHandler: NewSettingsHandler(settings),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/settings", MetricsMiddleware(s.settingsHandler.HandleSettings, "settings"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
