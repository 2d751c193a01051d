package api

import (
	"context"
	"fmt"

	"fleetroute/internal/ga"
	"fleetroute/internal/model"
)

// buildSolve resolves the distance matrix and solver params for a submitted
// solve and validates the whole thing before it is persisted.
func (s *Server) buildSolve(ctx context.Context, req model.SolveRequest) (model.Solve, error) {
	sol := model.Solve{
		TenantID:    req.TenantID,
		ScenarioID:  req.ScenarioID,
		NumVehicles: req.NumVehicles,
	}
	switch {
	case req.ScenarioID != "":
		sc, err := s.Store.GetScenario(ctx, req.TenantID, req.ScenarioID)
		if err != nil {
			return sol, fmt.Errorf("scenario %s: %w", req.ScenarioID, err)
		}
		sol.Matrix = sc.DistanceMatrix
	case len(req.DistanceMatrix) > 0:
		sol.Matrix = req.DistanceMatrix
	default:
		return sol, fmt.Errorf("either scenarioId or distanceMatrix is required")
	}
	sol.NumLocations = len(sol.Matrix) - 1
	if sol.NumVehicles == 0 {
		sol.NumVehicles = s.Defaults.NumVehicles
	}
	if req.Params != nil {
		sol.Params = *req.Params
	} else {
		sol.Params = s.Defaults.Params()
	}
	return sol, validateSolve(sol)
}

func validateSolve(sol model.Solve) error {
	if sol.NumLocations < 2 {
		return fmt.Errorf("distance matrix must cover the depot plus at least 2 locations")
	}
	if sol.NumVehicles < 1 {
		return fmt.Errorf("numVehicles must be at least 1")
	}
	if err := ga.Matrix(sol.Matrix).Validate(sol.NumLocations); err != nil {
		return err
	}
	cfg := ga.Config{
		MaxGenerations: sol.Params.MaxGenerations,
		MutationRate:   sol.Params.MutationRate,
		ElitismSize:    sol.Params.ElitismSize,
	}
	return cfg.Validate(sol.Params.PopulationSize)
}
