package store

import (
	"context"
	"errors"
	"testing"

	"fleetroute/internal/model"
)

func TestMemoryScenarioRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sc, err := m.CreateScenario(ctx, model.Scenario{
		TenantID:       "t_demo",
		DepotAddress:   "somewhere",
		Locations:      []model.GeoPoint{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}},
		DistanceMatrix: [][]float64{{0, 1}, {1, 0}},
	})
	if err != nil {
		t.Fatalf("CreateScenario: %v", err)
	}
	if sc.ID == "" || sc.CreatedAt == "" {
		t.Fatalf("expected id and createdAt to be set, got %+v", sc)
	}

	got, err := m.GetScenario(ctx, "t_demo", sc.ID)
	if err != nil {
		t.Fatalf("GetScenario: %v", err)
	}
	if got.DepotAddress != "somewhere" || len(got.Locations) != 2 {
		t.Fatalf("unexpected scenario: %+v", got)
	}

	if _, err := m.GetScenario(ctx, "t_other", sc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read should be ErrNotFound, got %v", err)
	}
}

func TestMemorySolveLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	s, err := m.CreateSolve(ctx, model.Solve{TenantID: "t_demo", Status: model.SolveQueued, NumLocations: 3, NumVehicles: 2})
	if err != nil {
		t.Fatalf("CreateSolve: %v", err)
	}

	claimed, err := m.ClaimQueuedSolve(ctx)
	if err != nil {
		t.Fatalf("ClaimQueuedSolve: %v", err)
	}
	if claimed.ID != s.ID || claimed.Status != model.SolveRunning || claimed.StartedAt == "" {
		t.Fatalf("unexpected claim: %+v", claimed)
	}
	if _, err := m.ClaimQueuedSolve(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty queue should be ErrNotFound, got %v", err)
	}

	res := model.SolveResult{Fitness: 12.5, Generations: 10}
	if err := m.CompleteSolve(ctx, s.ID, res); err != nil {
		t.Fatalf("CompleteSolve: %v", err)
	}
	got, err := m.GetSolve(ctx, "t_demo", s.ID)
	if err != nil {
		t.Fatalf("GetSolve: %v", err)
	}
	if got.Status != model.SolveCompleted || got.Result == nil || got.Result.Fitness != 12.5 || got.FinishedAt == "" {
		t.Fatalf("unexpected solve after completion: %+v", got)
	}
}

func TestMemoryFailSolve(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	s, _ := m.CreateSolve(ctx, model.Solve{TenantID: "t_demo", Status: model.SolveQueued})
	if _, err := m.ClaimQueuedSolve(ctx); err != nil {
		t.Fatalf("ClaimQueuedSolve: %v", err)
	}
	if err := m.FailSolve(ctx, s.ID, "matrix out of range"); err != nil {
		t.Fatalf("FailSolve: %v", err)
	}
	got, _ := m.GetSolve(ctx, "t_demo", s.ID)
	if got.Status != model.SolveFailed || got.Error != "matrix out of range" {
		t.Fatalf("unexpected solve after failure: %+v", got)
	}

	if err := m.FailSolve(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id should be ErrNotFound, got %v", err)
	}
}

func TestMemoryListSolvesPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ids := []string{}
	for i := 0; i < 5; i++ {
		s, _ := m.CreateSolve(ctx, model.Solve{TenantID: "t_demo", Status: model.SolveQueued})
		ids = append(ids, s.ID)
	}
	m.CreateSolve(ctx, model.Solve{TenantID: "t_other", Status: model.SolveQueued})

	first, next, err := m.ListSolves(ctx, "t_demo", "", "", 2)
	if err != nil {
		t.Fatalf("ListSolves: %v", err)
	}
	if len(first) != 2 || next == "" {
		t.Fatalf("expected 2 items and a cursor, got %d items cursor %q", len(first), next)
	}
	if first[0].ID != ids[0] || first[1].ID != ids[1] {
		t.Fatalf("unexpected page order")
	}

	second, next2, err := m.ListSolves(ctx, "t_demo", "", next, 10)
	if err != nil {
		t.Fatalf("ListSolves page 2: %v", err)
	}
	if len(second) != 3 || next2 != "" {
		t.Fatalf("expected final page of 3, got %d items cursor %q", len(second), next2)
	}

	queued, _, err := m.ListSolves(ctx, "t_demo", model.SolveQueued, "", 10)
	if err != nil {
		t.Fatalf("ListSolves by status: %v", err)
	}
	if len(queued) != 5 {
		t.Fatalf("expected 5 queued solves, got %d", len(queued))
	}
}
