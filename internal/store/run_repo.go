package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jilai-deployer/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// RunRepo keeps the history of deployment runs in SQLite.
type RunRepo struct {
	DB *sql.DB
}

func (r *RunRepo) CreateRun(ctx context.Context, run *models.Run) error {
	plan, err := json.Marshal(run.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO runs (id, network, account, state, plan, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Network, run.Account, string(run.State), string(plan), run.Error,
		run.StartedAt.UnixMilli(), nullTime(run.FinishedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %q: %w", run.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun stores state, error and finish time of an existing run.
func (r *RunRepo) UpdateRun(ctx context.Context, run *models.Run) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE runs SET state = ?, account = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(run.State), run.Account, run.Error, nullTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %q: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (r *RunRepo) AddModule(ctx context.Context, runID string, m models.DeployedModule) error {
	args, err := json.Marshal(m.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO run_modules (run_id, position, name, address, tx_hash, args, resumed, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Position, m.Name, m.Address, m.TxHash, string(args), boolInt(m.Resumed), m.Timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("module %q of run %q: %w", m.Name, runID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

func (r *RunRepo) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, network, account, state, plan, error, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if run.Modules, err = r.modules(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT id, network, account, state, plan, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if runs[i].Modules, err = r.modules(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *RunRepo) modules(ctx context.Context, runID string) ([]models.DeployedModule, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT position, name, address, tx_hash, args, resumed, timestamp
		 FROM run_modules WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	modules := []models.DeployedModule{}
	for rows.Next() {
		var (
			m       models.DeployedModule
			args    string
			resumed int
		)
		if err := rows.Scan(&m.Position, &m.Name, &m.Address, &m.TxHash, &args, &resumed, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &m.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
		m.Resumed = resumed != 0
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run      models.Run
		st       string
		plan     string
		started  int64
		finished sql.NullInt64
	)
	if err := s.Scan(&run.ID, &run.Network, &run.Account, &st, &plan, &run.Error, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.State = models.RunState(st)
	if err := json.Unmarshal([]byte(plan), &run.Plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
