// Package api implements HTTP handlers and helpers for the fleetroute service.
package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"fleetroute/internal/geo"
	"fleetroute/internal/model"
	"fleetroute/internal/store"
	"fleetroute/internal/worker"
)

type Server struct {
	Store    store.Store
	Broker   EventBroker
	Geocoder *geo.Geocoder
	Runner   *worker.Runner
	Defaults Defaults

	limiter *tenantLimiter
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Bootstrap schema (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.Migrate(context.Background())
		}
		s = sp
	}
	// Broker selection
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	srv := &Server{
		Store:    s,
		Broker:   broker,
		Geocoder: geo.NewGeocoder(),
		Defaults: LoadDefaults(),
		limiter:  newTenantLimiter(),
	}
	srv.Runner = &worker.Runner{Publish: srv.publishProgress}
	return srv, nil
}

func (s *Server) publishProgress(solveID string, ev model.ProgressEvent) {
	s.Broker.Publish(solveID, SSEEvent{Type: "solve.progress", Data: map[string]any{
		"solveId":    ev.SolveID,
		"generation": ev.Generation,
		"best":       ev.Best,
		"avg":        ev.Avg,
	}})
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
	// For now, get tenant from header; in production decode from JWT.
	tenant := r.Header.Get("X-Tenant-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
	return ctx, tenant
}

type ctxKeyTenant struct{}

// NewSolveWorker creates a background worker for queued solves.
func (s *Server) NewSolveWorker() *worker.Worker {
	w := worker.NewWorker(s.Store, s.Runner)
	w.Notify = func(solveID, status string) {
		s.Broker.Publish(solveID, SSEEvent{Type: "solve." + status, Data: map[string]any{"solveId": solveID, "status": status}})
	}
	return w
}
