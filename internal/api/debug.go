package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"fleetroute/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":               os.Getenv("PORT"),
			"SOLVER_DEFAULTS":    os.Getenv("SOLVER_DEFAULTS"),
			"SOLVE_RATE_PER_MIN": os.Getenv("SOLVE_RATE_PER_MIN"),
			"NOMINATIM_URL":      os.Getenv("NOMINATIM_URL"),
			"HAS_DATABASE_URL":   os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":      os.Getenv("REDIS_URL") != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
