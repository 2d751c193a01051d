// Package worker runs solve jobs: inline for synchronous requests and via a
// background loop for queued ones.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"fleetroute/internal/ga"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
	"fleetroute/internal/store"
)

// Runner executes one solve with the GA engine. Publish, when set, receives a
// progress event per generation.
type Runner struct {
	Publish func(solveID string, ev model.ProgressEvent)
}

// RunSolve evolves the configured number of generations and returns the
// decoded best solution plus the fitness trajectories.
func (r *Runner) RunSolve(ctx context.Context, s model.Solve) (model.SolveResult, error) {
	start := time.Now()
	rng := ga.NewRNG(s.Params.Seed)

	pop, err := ga.NewPopulation(s.Params.PopulationSize, s.NumLocations, s.NumVehicles, ga.Matrix(s.Matrix), rng)
	if err != nil {
		return model.SolveResult{}, err
	}
	eng, err := ga.NewEngine(pop, ga.Config{
		MaxGenerations: s.Params.MaxGenerations,
		MutationRate:   s.Params.MutationRate,
		ElitismSize:    s.Params.ElitismSize,
	}, rng)
	if err != nil {
		return model.SolveResult{}, err
	}
	eng.OnGeneration = func(gen int, best, avg float64) {
		metrics.Generations.Inc()
		if r.Publish != nil {
			r.Publish(s.ID, model.ProgressEvent{SolveID: s.ID, Generation: gen, Best: best, Avg: avg})
		}
	}

	best, err := eng.Run(ctx)
	if err != nil {
		return model.SolveResult{}, err
	}

	routes := []model.RouteOut{}
	for i, stops := range best.Routes() {
		routes = append(routes, model.RouteOut{Vehicle: i, Stops: stops})
	}
	bestHist, avgHist := eng.History()
	res := model.SolveResult{
		Fitness:            best.Fitness(),
		Routes:             routes,
		Genes:              best.Genes(),
		BestFitnessHistory: bestHist,
		AvgFitnessHistory:  avgHist,
		Generations:        eng.Generation(),
		DurationMs:         time.Since(start).Milliseconds(),
	}
	metrics.BestFitness.Set(best.Fitness())
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// Worker drains queued solves from the store.
type Worker struct {
	Store  store.Store
	Runner *Runner
	Stop   chan struct{}

	// Notify, when set, is called once per finished solve with its final status.
	Notify func(solveID, status string)
}

func NewWorker(s store.Store, r *Runner) *Worker {
	return &Worker{Store: s, Runner: r, Stop: make(chan struct{})}
}

func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.processOnce()
			}
		}
	}()
}

// processOnce claims and runs queued solves until the queue is empty.
func (w *Worker) processOnce() {
	for {
		ctx := context.Background()
		s, err := w.Store.ClaimQueuedSolve(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		if err != nil {
			log.Printf("claim solve: %v", err)
			return
		}
		res, err := w.Runner.RunSolve(ctx, s)
		if err != nil {
			log.Printf("solve %s failed: %v", s.ID, err)
			_ = w.Store.FailSolve(ctx, s.ID, err.Error())
			metrics.Solves.WithLabelValues(model.SolveFailed).Inc()
			if w.Notify != nil {
				w.Notify(s.ID, model.SolveFailed)
			}
			continue
		}
		if err := w.Store.CompleteSolve(ctx, s.ID, res); err != nil {
			log.Printf("complete solve %s: %v", s.ID, err)
			continue
		}
		metrics.Solves.WithLabelValues(model.SolveCompleted).Inc()
		if w.Notify != nil {
			w.Notify(s.ID, model.SolveCompleted)
		}
	}
}
