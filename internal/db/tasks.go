package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timeparse"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// TaskGateway persists project tasks. Segments are not loaded; use
// Segments.RetrieveByParent.
type TaskGateway struct{}

// Tasks is the task gateway.
var Tasks ChildGateway[*timesheet.Task, uuid.UUID] = TaskGateway{}

const taskColumns = `task_id, project_id, task_name, task_duration, task_date_time`

// InsertOne stores a task row and returns rows affected.
func (TaskGateway) InsertOne(ctx context.Context, q Querier, t *timesheet.Task) (int64, error) {
	query := `
		INSERT INTO project_tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?)
	`
	res, err := q.ExecContext(ctx, query,
		t.ID.String(), t.ProjectID.String(), t.Name, t.DurationMS,
		t.StartedAt.Format(timeparse.TimestampLayout),
	)
	if err != nil {
		return 0, insertError(err, "task", t.ID.String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewConnectivity(err)
	}
	return n, nil
}

// RetrieveOne loads a task by id.
func (TaskGateway) RetrieveOne(ctx context.Context, q Querier, id uuid.UUID) (*timesheet.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM project_tasks WHERE task_id = ?`

	t, err := scanTask(q.QueryRowContext(ctx, query, id.String()))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("task", id.String())
	}
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return t, nil
}

// RetrieveAll returns every task ordered by project, then start time.
func (TaskGateway) RetrieveAll(ctx context.Context, q Querier) ([]*timesheet.Task, error) {
	query := `
		SELECT t.task_id, t.project_id, t.task_name, t.task_duration, t.task_date_time
		FROM project_tasks t
		JOIN projects p ON p.project_id = t.project_id
		ORDER BY p.project_date ASC, p.project_name ASC, t.task_date_time ASC, t.task_name ASC
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*timesheet.Task, error) { return scanTask(r) })
}

// RetrieveByParent returns the tasks of one project ordered by start time.
func (TaskGateway) RetrieveByParent(ctx context.Context, q Querier, projectID uuid.UUID) ([]*timesheet.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM project_tasks WHERE project_id = ? ORDER BY task_date_time ASC, task_name ASC`

	rows, err := q.QueryContext(ctx, query, projectID.String())
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*timesheet.Task, error) { return scanTask(r) })
}

func scanTask(row rowScanner) (*timesheet.Task, error) {
	var (
		t         timesheet.Task
		id        string
		projectID string
		startedAt string
	)
	if err := row.Scan(&id, &projectID, &t.Name, &t.DurationMS, &startedAt); err != nil {
		return nil, err
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("task_id %q: %w", id, err)
	}
	if t.ProjectID, err = uuid.Parse(projectID); err != nil {
		return nil, fmt.Errorf("project_id %q: %w", projectID, err)
	}
	if t.StartedAt, err = time.Parse(timeparse.TimestampLayout, startedAt); err != nil {
		return nil, fmt.Errorf("task_date_time %q: %w", startedAt, err)
	}
	return &t, nil
}
