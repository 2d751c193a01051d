package model

// Core domain types shared by the API, stores and the solve runner.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScenarioRequest describes a generated problem instance: a depot (named or
// explicit) plus random customer points within a radius.
type ScenarioRequest struct {
	TenantID     string    `json:"tenantId,omitempty"`
	DepotAddress string    `json:"depotAddress,omitempty"`
	Depot        *GeoPoint `json:"depot,omitempty"`
	NumPoints    int       `json:"numPoints"`
	MaxDistanceKm float64  `json:"maxDistanceKm"`
	Seed         int64     `json:"seed,omitempty"`
}

// Scenario is a generated problem instance. Locations[0] is the depot.
type Scenario struct {
	ID             string      `json:"id"`
	TenantID       string      `json:"tenantId,omitempty"`
	DepotAddress   string      `json:"depotAddress,omitempty"`
	Locations      []GeoPoint  `json:"locations"`
	DistanceMatrix [][]float64 `json:"distanceMatrix"`
	CreatedAt      string      `json:"createdAt,omitempty"`
}

// SolverParams are the GA hyperparameters for one solve.
type SolverParams struct {
	PopulationSize int     `json:"populationSize"`
	MaxGenerations int     `json:"maxGenerations"`
	MutationRate   float64 `json:"mutationRate"`
	ElitismSize    int     `json:"elitismSize"`
	Seed           int64   `json:"seed,omitempty"`
}

// SolveRequest submits a solve. Either DistanceMatrix (with NumLocations
// implied by its dimension) or ScenarioID must be provided.
type SolveRequest struct {
	TenantID       string        `json:"tenantId,omitempty"`
	ScenarioID     string        `json:"scenarioId,omitempty"`
	DistanceMatrix [][]float64   `json:"distanceMatrix,omitempty"`
	NumVehicles    int           `json:"numVehicles"`
	Params         *SolverParams `json:"params,omitempty"`
	Async          bool          `json:"async,omitempty"`
}

// RouteOut is one decoded vehicle route. Stops are customer indices bracketed
// by -1 depot markers, matching the chromosome decode convention.
type RouteOut struct {
	Vehicle int   `json:"vehicle"`
	Stops   []int `json:"stops"`
}

// SolveResult is the outcome of a finished solve.
type SolveResult struct {
	Fitness            float64    `json:"fitness"`
	Routes             []RouteOut `json:"routes"`
	Genes              []int      `json:"genes"`
	BestFitnessHistory []float64  `json:"bestFitnessHistory"`
	AvgFitnessHistory  []float64  `json:"avgFitnessHistory"`
	Generations        int        `json:"generations"`
	DurationMs         int64      `json:"durationMs"`
}

// Solve statuses.
const (
	SolveQueued    = "queued"
	SolveRunning   = "running"
	SolveCompleted = "completed"
	SolveFailed    = "failed"
)

// Solve is a solve job as stored and returned by the API.
type Solve struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenantId,omitempty"`
	ScenarioID   string       `json:"scenarioId,omitempty"`
	Status       string       `json:"status"`
	NumLocations int          `json:"numLocations"`
	NumVehicles  int          `json:"numVehicles"`
	Params       SolverParams `json:"params"`
	Matrix       [][]float64  `json:"-"`
	Result       *SolveResult `json:"result,omitempty"`
	Error        string       `json:"error,omitempty"`
	CreatedAt    string       `json:"createdAt,omitempty"`
	StartedAt    string       `json:"startedAt,omitempty"`
	FinishedAt   string       `json:"finishedAt,omitempty"`
}

// ProgressEvent is streamed per generation over SSE and websocket.
type ProgressEvent struct {
	SolveID    string  `json:"solveId"`
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Avg        float64 `json:"avg"`
}
