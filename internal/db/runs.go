package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sheetload/internal/errors"
)

// Import run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// ImportRun is the audit row written for every import.
type ImportRun struct {
	ID         string `json:"run_id"`
	Path       string `json:"path"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt *int64 `json:"finished_at,omitempty"`
	Rows       int    `json:"rows"`
	Projects   int    `json:"projects"`
	Inserted   int    `json:"inserted"`
	Skipped    int    `json:"skipped"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// NewImportRun returns a running import run with a fresh ULID.
func NewImportRun(path string, now time.Time) *ImportRun {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return &ImportRun{
		ID:        ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		Path:      path,
		StartedAt: now.Unix(),
		Status:    RunRunning,
	}
}

// RunGateway persists import runs.
type RunGateway struct{}

// Runs is the import run gateway.
var Runs Gateway[*ImportRun, string] = RunGateway{}

const runColumns = `run_id, path, started_at, finished_at, rows_read, projects, inserted, skipped, status, error`

// InsertOne stores a run row and returns rows affected.
func (RunGateway) InsertOne(ctx context.Context, q Querier, r *ImportRun) (int64, error) {
	query := `INSERT INTO import_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := q.ExecContext(ctx, query,
		r.ID, r.Path, r.StartedAt, toNullInt64(r.FinishedAt),
		r.Rows, r.Projects, r.Inserted, r.Skipped, r.Status, toNullString(r.Error),
	)
	if err != nil {
		return 0, insertError(err, "run", r.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewConnectivity(err)
	}
	return n, nil
}

// RetrieveOne loads a run by id.
func (RunGateway) RetrieveOne(ctx context.Context, q Querier, id string) (*ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE run_id = ?`

	r, err := scanRun(q.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("run", id)
	}
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return r, nil
}

// RetrieveAll returns every run, newest first.
func (RunGateway) RetrieveAll(ctx context.Context, q Querier) ([]*ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs ORDER BY run_id DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*ImportRun, error) { return scanRun(r) })
}

// FinishRun records the outcome of a run.
func FinishRun(ctx context.Context, q Querier, r *ImportRun) error {
	query := `
		UPDATE import_runs
		SET finished_at = ?, rows_read = ?, projects = ?, inserted = ?, skipped = ?, status = ?, error = ?
		WHERE run_id = ?
	`
	res, err := q.ExecContext(ctx, query,
		toNullInt64(r.FinishedAt), r.Rows, r.Projects, r.Inserted, r.Skipped,
		r.Status, toNullString(r.Error), r.ID,
	)
	if err != nil {
		return errors.NewConnectivity(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewConnectivity(err)
	}
	if n == 0 {
		return errors.NewNotFound("run", r.ID)
	}
	return nil
}

func scanRun(row rowScanner) (*ImportRun, error) {
	var (
		r          ImportRun
		finishedAt sql.NullInt64
		errText    sql.NullString
	)
	err := row.Scan(&r.ID, &r.Path, &r.StartedAt, &finishedAt,
		&r.Rows, &r.Projects, &r.Inserted, &r.Skipped, &r.Status, &errText)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Int64
	}
	r.Error = errText.String
	return &r, nil
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
