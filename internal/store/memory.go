package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetroute/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	scenarios map[string]model.Scenario // id -> scenario
	solves    map[string]model.Solve    // id -> solve
	byTen     map[string][]string       // tenant -> solve ids, insertion order
	queue     []string                  // queued solve ids, FIFO
}

func NewMemory() *Memory {
	return &Memory{
		scenarios: map[string]model.Scenario{},
		solves:    map[string]model.Solve{},
		byTen:     map[string][]string{},
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (m *Memory) CreateScenario(ctx context.Context, sc model.Scenario) (model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.ID = uuid.New().String()
	sc.CreatedAt = now()
	m.scenarios[sc.ID] = sc
	return sc, nil
}

func (m *Memory) GetScenario(ctx context.Context, tenantID, id string) (model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[id]
	if !ok || sc.TenantID != tenantID {
		return model.Scenario{}, ErrNotFound
	}
	return sc, nil
}

func (m *Memory) CreateSolve(ctx context.Context, s model.Solve) (model.Solve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New().String()
	s.CreatedAt = now()
	m.solves[s.ID] = s
	m.byTen[s.TenantID] = append(m.byTen[s.TenantID], s.ID)
	if s.Status == model.SolveQueued {
		m.queue = append(m.queue, s.ID)
	}
	return s, nil
}

func (m *Memory) GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.solves[id]
	if !ok || s.TenantID != tenantID {
		return model.Solve{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Solve, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.byTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Solve{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		s := m.solves[ids[i]]
		if status == "" || s.Status == status {
			out = append(out, s)
		}
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) ClaimQueuedSolve(ctx context.Context) (model.Solve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return model.Solve{}, ErrNotFound
	}
	id := m.queue[0]
	m.queue = m.queue[1:]
	s := m.solves[id]
	s.Status = model.SolveRunning
	s.StartedAt = now()
	m.solves[id] = s
	return s, nil
}

func (m *Memory) CompleteSolve(ctx context.Context, id string, res model.SolveResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.solves[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = model.SolveCompleted
	s.Result = &res
	s.FinishedAt = now()
	m.solves[id] = s
	return nil
}

func (m *Memory) FailSolve(ctx context.Context, id string, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.solves[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = model.SolveFailed
	s.Error = cause
	s.FinishedAt = now()
	m.solves[id] = s
	return nil
}
