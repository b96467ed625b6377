package report

import (
	"context"
	"database/sql"
	"math"

	"evrptw_bpc/src/bpc"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS bpc_runs (
	id uuid PRIMARY KEY,
	instance text NOT NULL,
	status text NOT NULL,
	objective double precision,
	scaled_objective double precision,
	root_bound double precision,
	nodes integer NOT NULL,
	iterations integer NOT NULL,
	columns_generated integer NOT NULL,
	cuts integer NOT NULL,
	master_ms bigint NOT NULL,
	pricing_ms bigint NOT NULL,
	duration_ms bigint NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bpc_routes (
	run_id uuid NOT NULL REFERENCES bpc_runs(id) ON DELETE CASCADE,
	seq integer NOT NULL,
	customers integer[] NOT NULL,
	cost integer NOT NULL,
	energy integer NOT NULL,
	load integer NOT NULL,
	departure integer NOT NULL,
	charging_start integer NOT NULL,
	charging_end integer NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// PostgresSink stores one row per run and one per route of the solution.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to results database")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating results tables")
	}
	return &PostgresSink{db: db}, nil
}

func (p *PostgresSink) Close() error {
	return p.db.Close()
}

// nullIfInf maps the objective of runs without a solution to NULL.
func nullIfInf(x float64) any {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return nil
	}
	return x
}

func (p *PostgresSink) Write(ctx context.Context, res *bpc.Result) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO bpc_runs (id, instance, status, objective, scaled_objective, root_bound, nodes, iterations, columns_generated, cuts, master_ms, pricing_ms, duration_ms) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		res.RunID, res.Instance, string(res.Status), nullIfInf(res.Objective), nullIfInf(res.ScaledObjective()), nullIfInf(res.RootBound),
		res.Nodes, res.Iterations, res.Columns, res.Cuts,
		res.MasterTime.Milliseconds(), res.PricingTime.Milliseconds(), res.Duration.Milliseconds())
	if err != nil {
		return errors.Wrapf(err, "storing run %s", res.RunID)
	}
	for i, r := range res.Routes {
		_, err = tx.ExecContext(ctx, `INSERT INTO bpc_routes (run_id, seq, customers, cost, energy, load, departure, charging_start, charging_end) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			res.RunID, i, r.Sequence, r.Cost, r.Energy, r.Load, r.Departure, r.InitialChargingTime, r.ChargingEnd())
		if err != nil {
			return errors.Wrapf(err, "storing route %d of run %s", i, res.RunID)
		}
	}
	return tx.Commit()
}
