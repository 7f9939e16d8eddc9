package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sheetload/internal/db"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// ListProjectsOutput contains stored projects without their tasks.
type ListProjectsOutput struct {
	Items []*timesheet.Project `json:"items"`
	Total int                  `json:"total"`
}

// ListProjects returns every stored project ordered by date.
func ListProjects(ctx context.Context, database *sql.DB) (*ListProjectsOutput, error) {
	items, err := db.Projects.RetrieveAll(ctx, database)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*timesheet.Project{}
	}
	return &ListProjectsOutput{Items: items, Total: len(items)}, nil
}

// GetProjectInput contains parameters for the GetProject operation.
type GetProjectInput struct {
	ID string // required
}

// GetProject returns one project with its tasks and their segments.
func GetProject(ctx context.Context, database *sql.DB, input GetProjectInput) (*timesheet.Project, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, err
	}

	p, err := db.Projects.RetrieveOne(ctx, database, id)
	if err != nil {
		return nil, err
	}
	p.Tasks, err = db.Tasks.RetrieveByParent(ctx, database, p.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range p.Tasks {
		segs, err := db.Segments.RetrieveByParent(ctx, database, t.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range segs {
			t.Segments = append(t.Segments, *s)
		}
	}
	return p, nil
}

// ListTasksInput contains parameters for the ListTasks operation.
type ListTasksInput struct {
	ProjectID string // required
}

// ListTasksOutput contains the tasks of one project without segments.
type ListTasksOutput struct {
	ProjectID string            `json:"project_id"`
	Items     []*timesheet.Task `json:"items"`
}

// ListTasks returns the tasks of a stored project ordered by start time.
// An unknown project is NOT_FOUND rather than an empty list.
func ListTasks(ctx context.Context, database *sql.DB, input ListTasksInput) (*ListTasksOutput, error) {
	id, err := parseID("project_id", input.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := db.Projects.RetrieveOne(ctx, database, id); err != nil {
		return nil, err
	}

	items, err := db.Tasks.RetrieveByParent(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*timesheet.Task{}
	}
	return &ListTasksOutput{ProjectID: id.String(), Items: items}, nil
}

// ListSegmentsInput contains parameters for the ListSegments operation.
type ListSegmentsInput struct {
	TaskID string // required
}

// ListSegmentsOutput contains the segments of one task.
type ListSegmentsOutput struct {
	TaskID string                   `json:"task_id"`
	Items  []*timesheet.TimeSegment `json:"items"`
}

// ListSegments returns the time segments of a stored task ordered by start.
func ListSegments(ctx context.Context, database *sql.DB, input ListSegmentsInput) (*ListSegmentsOutput, error) {
	id, err := parseID("task_id", input.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := db.Tasks.RetrieveOne(ctx, database, id); err != nil {
		return nil, err
	}

	items, err := db.Segments.RetrieveByParent(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*timesheet.TimeSegment{}
	}
	return &ListSegmentsOutput{TaskID: id.String(), Items: items}, nil
}
