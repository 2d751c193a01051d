package worker

import (
	"context"
	"sync"
	"testing"

	"fleetroute/internal/model"
	"fleetroute/internal/store"
)

func testMatrix() [][]float64 {
	return [][]float64{
		{0, 2, 2, 4, 5, 3},
		{2, 0, 3, 6, 7, 8},
		{2, 3, 0, 5, 4, 6},
		{4, 6, 5, 0, 1, 2},
		{5, 7, 4, 1, 0, 1},
		{3, 8, 6, 2, 1, 0},
	}
}

func testSolve() model.Solve {
	return model.Solve{
		TenantID:     "t_demo",
		Status:       model.SolveQueued,
		NumLocations: 5,
		NumVehicles:  2,
		Params:       model.SolverParams{PopulationSize: 30, MaxGenerations: 20, MutationRate: 0.05, ElitismSize: 2, Seed: 7},
		Matrix:       testMatrix(),
	}
}

func TestRunSolve(t *testing.T) {
	var mu sync.Mutex
	events := []model.ProgressEvent{}
	r := &Runner{Publish: func(id string, ev model.ProgressEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}}

	s := testSolve()
	s.ID = "s_test"
	res, err := r.RunSolve(context.Background(), s)
	if err != nil {
		t.Fatalf("RunSolve: %v", err)
	}
	if res.Generations != 20 {
		t.Fatalf("expected 20 generations, got %d", res.Generations)
	}
	if len(res.BestFitnessHistory) != 21 || len(res.AvgFitnessHistory) != 21 {
		t.Fatalf("expected 21 history entries, got %d/%d", len(res.BestFitnessHistory), len(res.AvgFitnessHistory))
	}
	if res.Fitness <= 0 {
		t.Fatalf("expected positive fitness, got %f", res.Fitness)
	}
	if len(res.Routes) == 0 || len(res.Routes) > 2 {
		t.Fatalf("expected 1 or 2 routes, got %d", len(res.Routes))
	}
	for _, route := range res.Routes {
		if route.Stops[0] != -1 || route.Stops[len(route.Stops)-1] != -1 {
			t.Fatalf("route %d not depot-wrapped: %v", route.Vehicle, route.Stops)
		}
	}
	if len(events) != 20 {
		t.Fatalf("expected one progress event per generation, got %d", len(events))
	}
	if events[len(events)-1].SolveID != "s_test" {
		t.Fatalf("progress event carries wrong solve id")
	}
}

func TestRunSolveDeterministicWithSeed(t *testing.T) {
	r := &Runner{}
	a, err := r.RunSolve(context.Background(), testSolve())
	if err != nil {
		t.Fatalf("RunSolve: %v", err)
	}
	b, err := r.RunSolve(context.Background(), testSolve())
	if err != nil {
		t.Fatalf("RunSolve: %v", err)
	}
	if a.Fitness != b.Fitness {
		t.Fatalf("same seed, different fitness: %f vs %f", a.Fitness, b.Fitness)
	}
}

func TestRunSolveBadMatrix(t *testing.T) {
	r := &Runner{}
	s := testSolve()
	s.NumLocations = 9
	if _, err := r.RunSolve(context.Background(), s); err == nil {
		t.Fatalf("expected matrix dimension error")
	}
}

func TestWorkerProcessOnce(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	created, err := mem.CreateSolve(ctx, testSolve())
	if err != nil {
		t.Fatalf("CreateSolve: %v", err)
	}

	statuses := map[string]string{}
	w := NewWorker(mem, &Runner{})
	w.Notify = func(solveID, status string) { statuses[solveID] = status }
	w.processOnce()

	got, err := mem.GetSolve(ctx, "t_demo", created.ID)
	if err != nil {
		t.Fatalf("GetSolve: %v", err)
	}
	if got.Status != model.SolveCompleted {
		t.Fatalf("expected completed, got %s (error %q)", got.Status, got.Error)
	}
	if got.Result == nil || got.Result.Generations != 20 {
		t.Fatalf("unexpected result: %+v", got.Result)
	}
	if statuses[created.ID] != model.SolveCompleted {
		t.Fatalf("notify not called with completed status")
	}
}

func TestWorkerFailsBadSolve(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	bad := testSolve()
	bad.NumLocations = 9 // matrix too small
	created, _ := mem.CreateSolve(ctx, bad)

	statuses := map[string]string{}
	w := NewWorker(mem, &Runner{})
	w.Notify = func(solveID, status string) { statuses[solveID] = status }
	w.processOnce()

	got, _ := mem.GetSolve(ctx, "t_demo", created.ID)
	if got.Status != model.SolveFailed || got.Error == "" {
		t.Fatalf("expected failed solve with error, got %+v", got)
	}
	if statuses[created.ID] != model.SolveFailed {
		t.Fatalf("notify not called with failed status")
	}
}
