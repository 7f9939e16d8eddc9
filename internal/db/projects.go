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

// ProjectGateway persists projects. Tasks are not loaded; use Tasks.RetrieveByParent.
type ProjectGateway struct{}

// Projects is the project gateway.
var Projects Gateway[*timesheet.Project, uuid.UUID] = ProjectGateway{}

const projectColumns = `project_id, project_name, project_date, pay_rate, project_duration, total_pay`

// InsertOne stores a project row and returns rows affected.
func (ProjectGateway) InsertOne(ctx context.Context, q Querier, p *timesheet.Project) (int64, error) {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := q.ExecContext(ctx, query,
		p.ID.String(), p.Name, p.Date.Format(timeparse.StoreDateLayout),
		p.PayRate, p.DurationMS, p.TotalPay,
	)
	if err != nil {
		return 0, insertError(err, "project", p.ID.String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewConnectivity(err)
	}
	return n, nil
}

// RetrieveOne loads a project by id.
func (ProjectGateway) RetrieveOne(ctx context.Context, q Querier, id uuid.UUID) (*timesheet.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = ?`

	p, err := scanProject(q.QueryRowContext(ctx, query, id.String()))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("project", id.String())
	}
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return p, nil
}

// RetrieveAll returns every project ordered by date, then name.
func (ProjectGateway) RetrieveAll(ctx context.Context, q Querier) ([]*timesheet.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY project_date ASC, project_name ASC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*timesheet.Project, error) { return scanProject(r) })
}

// RefreshProjectTotals recomputes a stored project's duration and pay from
// its stored tasks. Used when a re-import adds tasks to an existing project.
func RefreshProjectTotals(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `
		UPDATE projects
		SET project_duration = (
				SELECT COALESCE(SUM(task_duration), 0) FROM project_tasks WHERE project_id = projects.project_id
			),
			total_pay = (
				SELECT COALESCE(SUM(task_duration), 0) FROM project_tasks WHERE project_id = projects.project_id
			) / 60000.0 / 60.0 * pay_rate
		WHERE project_id = ?
	`
	res, err := q.ExecContext(ctx, query, id.String())
	if err != nil {
		return errors.NewConnectivity(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewConnectivity(err)
	}
	if n == 0 {
		return errors.NewNotFound("project", id.String())
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*timesheet.Project, error) {
	var (
		p    timesheet.Project
		id   string
		date string
	)
	if err := row.Scan(&id, &p.Name, &date, &p.PayRate, &p.DurationMS, &p.TotalPay); err != nil {
		return nil, err
	}

	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("project_id %q: %w", id, err)
	}
	if p.Date, err = time.Parse(timeparse.StoreDateLayout, date); err != nil {
		return nil, fmt.Errorf("project_date %q: %w", date, err)
	}
	return &p, nil
}
