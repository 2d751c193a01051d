package api

import (
	"log"
	"net/http"
	"os"

	yaml "gopkg.in/yaml.v3"

	"fleetroute/internal/model"
)

// Defaults are the stock solver and scenario parameters, optionally overlaid
// from a YAML file named by SOLVER_DEFAULTS.
type Defaults struct {
	PopulationSize int     `yaml:"populationSize" json:"populationSize"`
	MaxGenerations int     `yaml:"maxGenerations" json:"maxGenerations"`
	MutationRate   float64 `yaml:"mutationRate" json:"mutationRate"`
	ElitismSize    int     `yaml:"elitismSize" json:"elitismSize"`
	NumVehicles    int     `yaml:"numVehicles" json:"numVehicles"`
	NumPoints      int     `yaml:"numPoints" json:"numPoints"`
	MaxDistanceKm  float64 `yaml:"maxDistanceKm" json:"maxDistanceKm"`
	DepotAddress   string  `yaml:"depotAddress" json:"depotAddress"`
}

// LoadDefaults returns the built-in defaults merged with the YAML overlay.
func LoadDefaults() Defaults {
	d := Defaults{
		PopulationSize: 500,
		MaxGenerations: 1000,
		MutationRate:   0.01,
		ElitismSize:    2,
		NumVehicles:    5,
		NumPoints:      40,
		MaxDistanceKm:  15,
		DepotAddress:   "University of Transport and Communications",
	}
	path := os.Getenv("SOLVER_DEFAULTS")
	if path == "" {
		return d
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("solver defaults: %v", err)
		return d
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		log.Printf("solver defaults parse: %v", err)
	}
	return d
}

// Params returns the default GA hyperparameters.
func (d Defaults) Params() model.SolverParams {
	return model.SolverParams{
		PopulationSize: d.PopulationSize,
		MaxGenerations: d.MaxGenerations,
		MutationRate:   d.MutationRate,
		ElitismSize:    d.ElitismSize,
	}
}

// SolverDefaultsHandler serves GET /v1/solver/defaults
func (s *Server) SolverDefaultsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, 200, map[string]any{"defaults": s.Defaults})
}
