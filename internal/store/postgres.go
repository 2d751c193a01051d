package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetroute/internal/model"
)

// Postgres persists scenarios and solves. Matrices and results are stored as
// jsonb; the queue is the solves table itself filtered by status.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the schema if it does not exist (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS scenarios (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    depot_address TEXT,
    locations JSONB NOT NULL,
    matrix JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS solves (
    id UUID PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    scenario_id TEXT,
    status TEXT NOT NULL,
    num_locations INT NOT NULL,
    num_vehicles INT NOT NULL,
    params JSONB NOT NULL,
    matrix JSONB NOT NULL,
    result JSONB,
    error TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    started_at TIMESTAMPTZ,
    finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS solves_tenant_created ON solves (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS solves_status ON solves (status, created_at);
`)
	return err
}

func toJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (p *Postgres) CreateScenario(ctx context.Context, sc model.Scenario) (model.Scenario, error) {
	sc.ID = uuid.New().String()
	sc.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, tenant_id, depot_address, locations, matrix) VALUES ($1,$2,$3,$4,$5)`,
		sc.ID, sc.TenantID, sc.DepotAddress, toJSON(sc.Locations), toJSON(sc.DistanceMatrix))
	if err != nil {
		return model.Scenario{}, err
	}
	return sc, nil
}

func (p *Postgres) GetScenario(ctx context.Context, tenantID, id string) (model.Scenario, error) {
	var sc model.Scenario
	var locs, matrix []byte
	var created time.Time
	err := p.db.QueryRowContext(ctx,
		`SELECT id::text, tenant_id, COALESCE(depot_address,''), locations, matrix, created_at
		 FROM scenarios WHERE id=$1 AND tenant_id=$2`, id, tenantID).
		Scan(&sc.ID, &sc.TenantID, &sc.DepotAddress, &locs, &matrix, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scenario{}, ErrNotFound
	}
	if err != nil {
		return model.Scenario{}, err
	}
	if err := json.Unmarshal(locs, &sc.Locations); err != nil {
		return model.Scenario{}, err
	}
	if err := json.Unmarshal(matrix, &sc.DistanceMatrix); err != nil {
		return model.Scenario{}, err
	}
	sc.CreatedAt = created.UTC().Format(time.RFC3339)
	return sc, nil
}

func (p *Postgres) CreateSolve(ctx context.Context, s model.Solve) (model.Solve, error) {
	s.ID = uuid.New().String()
	s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO solves (id, tenant_id, scenario_id, status, num_locations, num_vehicles, params, matrix)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.TenantID, s.ScenarioID, s.Status, s.NumLocations, s.NumVehicles, toJSON(s.Params), toJSON(s.Matrix))
	if err != nil {
		return model.Solve{}, err
	}
	return s, nil
}

func (p *Postgres) scanSolve(row interface{ Scan(...any) error }) (model.Solve, error) {
	var s model.Solve
	var params, matrix []byte
	var result sql.NullString
	var errMsg sql.NullString
	var created time.Time
	var started, finished sql.NullTime
	err := row.Scan(&s.ID, &s.TenantID, &s.ScenarioID, &s.Status, &s.NumLocations, &s.NumVehicles,
		&params, &matrix, &result, &errMsg, &created, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Solve{}, ErrNotFound
	}
	if err != nil {
		return model.Solve{}, err
	}
	if err := json.Unmarshal(params, &s.Params); err != nil {
		return model.Solve{}, err
	}
	if err := json.Unmarshal(matrix, &s.Matrix); err != nil {
		return model.Solve{}, err
	}
	if result.Valid && result.String != "" {
		var res model.SolveResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return model.Solve{}, err
		}
		s.Result = &res
	}
	if errMsg.Valid {
		s.Error = errMsg.String
	}
	s.CreatedAt = created.UTC().Format(time.RFC3339)
	if started.Valid {
		s.StartedAt = started.Time.UTC().Format(time.RFC3339)
	}
	if finished.Valid {
		s.FinishedAt = finished.Time.UTC().Format(time.RFC3339)
	}
	return s, nil
}

const solveCols = `id::text, tenant_id, COALESCE(scenario_id,''), status, num_locations, num_vehicles,
	params, matrix, result::text, error, created_at, started_at, finished_at`

func (p *Postgres) GetSolve(ctx context.Context, tenantID, id string) (model.Solve, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+solveCols+` FROM solves WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	return p.scanSolve(row)
}

func (p *Postgres) ListSolves(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Solve, string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + solveCols + ` FROM solves WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	if cursor != "" {
		q += ` AND created_at > (SELECT created_at FROM solves WHERE id=$` + itoa(len(args)+1) + `)`
		args = append(args, cursor)
	}
	q += ` ORDER BY created_at ASC LIMIT $` + itoa(len(args)+1)
	args = append(args, limit+1)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Solve{}
	for rows.Next() {
		s, err := p.scanSolve(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

func (p *Postgres) ClaimQueuedSolve(ctx context.Context) (model.Solve, error) {
	row := p.db.QueryRowContext(ctx, `
UPDATE solves SET status='running', started_at=now()
WHERE id = (
    SELECT id FROM solves WHERE status='queued'
    ORDER BY created_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING `+solveCols)
	return p.scanSolve(row)
}

func (p *Postgres) CompleteSolve(ctx context.Context, id string, res model.SolveResult) error {
	ct, err := p.db.ExecContext(ctx,
		`UPDATE solves SET status='completed', result=$2, finished_at=now() WHERE id=$1`,
		id, toJSON(res))
	if err != nil {
		return err
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FailSolve(ctx context.Context, id string, cause string) error {
	ct, err := p.db.ExecContext(ctx,
		`UPDATE solves SET status='failed', error=$2, finished_at=now() WHERE id=$1`,
		id, cause)
	if err != nil {
		return err
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
