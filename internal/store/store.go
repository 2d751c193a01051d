package store

import (
	"context"
	"errors"

	"fleetroute/internal/model"
)

// Store is the persistence interface used by the API server and the solve
// runner.
type Store interface {
	// Scenarios
	CreateScenario(ctx context.Context, sc model.Scenario) (model.Scenario, error)
	GetScenario(ctx context.Context, tenantID, id string) (model.Scenario, error)

	// Solves
	CreateSolve(ctx context.Context, s model.Solve) (model.Solve, error)
	GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error)
	ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) (items []model.Solve, nextCursor string, err error)

	// ClaimQueuedSolve atomically moves the oldest queued solve to running and
	// returns it. ErrNotFound when the queue is empty.
	ClaimQueuedSolve(ctx context.Context) (model.Solve, error)
	CompleteSolve(ctx context.Context, id string, res model.SolveResult) error
	FailSolve(ctx context.Context, id string, cause string) error
}

var ErrNotFound = errors.New("not found")
