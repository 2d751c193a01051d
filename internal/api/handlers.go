package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetroute/internal/ga"
	"fleetroute/internal/geo"
	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
)

// ScenariosHandler handles POST /v1/scenarios
func (s *Server) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.TenantID == "" {
		_, req.TenantID = s.withTenant(r)
	}
	if req.NumPoints <= 0 {
		req.NumPoints = s.Defaults.NumPoints
	}
	if req.MaxDistanceKm <= 0 {
		req.MaxDistanceKm = s.Defaults.MaxDistanceKm
	}

	var depot model.GeoPoint
	address := req.DepotAddress
	switch {
	case req.Depot != nil:
		depot = *req.Depot
	default:
		if address == "" {
			address = s.Defaults.DepotAddress
		}
		pt, err := s.Geocoder.Geocode(r.Context(), address)
		if err != nil {
			writeProblem(w, http.StatusBadGateway, "Geocoding failed", err.Error(), r.URL.Path)
			return
		}
		depot = pt
	}

	rng := ga.NewRNG(req.Seed)
	locations := append([]model.GeoPoint{depot}, geo.RandomPoints(rng, depot, req.NumPoints, req.MaxDistanceKm)...)
	sc := model.Scenario{
		TenantID:       req.TenantID,
		DepotAddress:   address,
		Locations:      locations,
		DistanceMatrix: geo.DistanceMatrix(locations),
	}
	created, err := s.Store.CreateScenario(r.Context(), sc)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Create scenario failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ScenarioByIDHandler handles GET /v1/scenarios/{id} and /v1/scenarios/{id}/matrix.csv
func (s *Server) ScenarioByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/scenarios/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")
	_, tenant := s.withTenant(r)
	sc, err := s.Store.GetScenario(r.Context(), tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
		return
	}
	switch sub {
	case "":
		writeJSON(w, http.StatusOK, sc)
	case "matrix.csv":
		w.Header().Set("Content-Type", "text/csv")
		_ = geo.WriteMatrixCSV(w, sc.DistanceMatrix)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// SolvesHandler handles POST/GET /v1/solves. A POST without async runs the
// solver inline and returns the completed solve; params, when provided, are
// taken verbatim (no per-field defaulting).
func (s *Server) SolvesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		_, tenant := s.withTenant(r)
		if !s.limiter.allow(tenant) {
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "solve submission rate limit exceeded", r.URL.Path)
			return
		}
		var req model.SolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = tenant
		}
		sol, err := s.buildSolve(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
			return
		}

		if req.Async {
			sol.Status = model.SolveQueued
			created, err := s.Store.CreateSolve(r.Context(), sol)
			if err != nil {
				writeProblem(w, http.StatusInternalServerError, "Create solve failed", err.Error(), r.URL.Path)
				return
			}
			writeJSON(w, http.StatusAccepted, created)
			return
		}

		sol.Status = model.SolveRunning
		sol.StartedAt = time.Now().UTC().Format(time.RFC3339)
		created, err := s.Store.CreateSolve(r.Context(), sol)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create solve failed", err.Error(), r.URL.Path)
			return
		}
		res, err := s.Runner.RunSolve(r.Context(), created)
		if err != nil {
			_ = s.Store.FailSolve(r.Context(), created.ID, err.Error())
			metrics.Solves.WithLabelValues(model.SolveFailed).Inc()
			writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
			return
		}
		if err := s.Store.CompleteSolve(r.Context(), created.ID, res); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Persist solve failed", err.Error(), r.URL.Path)
			return
		}
		metrics.Solves.WithLabelValues(model.SolveCompleted).Inc()
		done, err := s.Store.GetSolve(r.Context(), req.TenantID, created.ID)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Load solve failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, done)

	case http.MethodGet:
		_, tenant := s.withTenant(r)
		status := r.URL.Query().Get("status")
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSolves(r.Context(), tenant, status, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List solves failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SolveByIDHandler handles GET /v1/solves/{id} plus the routes.geojson,
// matrix.csv and events/stream subresources.
func (s *Server) SolveByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/solves/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	id, sub, _ := strings.Cut(rest, "/")
	_, tenant := s.withTenant(r)

	if sub == "events/stream" {
		s.streamSolveEvents(w, r, id)
		return
	}

	sol, err := s.Store.GetSolve(r.Context(), tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error(), r.URL.Path)
		return
	}
	switch sub {
	case "":
		writeJSON(w, http.StatusOK, sol)
	case "matrix.csv":
		w.Header().Set("Content-Type", "text/csv")
		_ = geo.WriteMatrixCSV(w, sol.Matrix)
	case "routes.geojson":
		s.writeRoutesGeoJSON(w, r, tenant, sol)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// writeRoutesGeoJSON renders the best solution as a GeoJSON FeatureCollection,
// one LineString per vehicle route. Requires a scenario-backed solve; a raw
// matrix has no coordinates to draw.
func (s *Server) writeRoutesGeoJSON(w http.ResponseWriter, r *http.Request, tenant string, sol model.Solve) {
	if sol.Result == nil {
		writeProblem(w, http.StatusConflict, "Solve not completed", "no result to render", r.URL.Path)
		return
	}
	if sol.ScenarioID == "" {
		writeProblem(w, http.StatusConflict, "No geometry", "solve was submitted with a raw matrix; no coordinates available", r.URL.Path)
		return
	}
	sc, err := s.Store.GetScenario(r.Context(), tenant, sol.ScenarioID)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Scenario not found", err.Error(), r.URL.Path)
		return
	}
	features := []map[string]any{}
	for _, route := range sol.Result.Routes {
		coords := [][]float64{}
		for _, stop := range route.Stops {
			pt := sc.Locations[0]
			if stop >= 0 {
				pt = sc.Locations[stop+1]
			}
			coords = append(coords, []float64{pt.Lng, pt.Lat})
		}
		features = append(features, map[string]any{
			"type":       "Feature",
			"geometry":   map[string]any{"type": "LineString", "coordinates": coords},
			"properties": map[string]any{"vehicle": route.Vehicle, "stops": route.Stops},
		})
	}
	w.Header().Set("Content-Type", "application/geo+json")
	writeJSON(w, http.StatusOK, map[string]any{"type": "FeatureCollection", "features": features})
}

// streamSolveEvents serves SSE progress for one solve until it finishes or
// the client goes away.
func (s *Server) streamSolveEvents(w http.ResponseWriter, r *http.Request, solveID string) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fl.Flush()

	ch := s.Broker.Subscribe(solveID)
	defer s.Broker.Unsubscribe(solveID, ch)
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			fl.Flush()
			if evt.Type == "solve."+model.SolveCompleted || evt.Type == "solve."+model.SolveFailed {
				return
			}
		}
	}
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}
