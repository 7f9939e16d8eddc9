package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timeparse"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// SegmentGateway persists time segments. Ids are assigned by the store.
type SegmentGateway struct{}

// Segments is the time segment gateway.
var Segments ChildGateway[*timesheet.TimeSegment, int64] = SegmentGateway{}

const segmentColumns = `task_time_id, task_id, start_time, end_time`

// InsertOne stores a segment, sets s.ID and returns the assigned id.
func (SegmentGateway) InsertOne(ctx context.Context, q Querier, s *timesheet.TimeSegment) (int64, error) {
	query := `INSERT INTO task_times (task_id, start_time, end_time) VALUES (?, ?, ?)`

	res, err := q.ExecContext(ctx, query,
		s.TaskID.String(),
		s.Start.Format(timeparse.TimestampLayout),
		s.End.Format(timeparse.TimestampLayout),
	)
	if err != nil {
		return 0, insertError(err, "segment", s.TaskID.String())
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewConnectivity(err)
	}
	s.ID = id
	return id, nil
}

// RetrieveOne loads a segment by id.
func (SegmentGateway) RetrieveOne(ctx context.Context, q Querier, id int64) (*timesheet.TimeSegment, error) {
	query := `SELECT ` + segmentColumns + ` FROM task_times WHERE task_time_id = ?`

	s, err := scanSegment(q.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("segment", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return s, nil
}

// RetrieveAll returns every segment ordered by task, then start time.
func (SegmentGateway) RetrieveAll(ctx context.Context, q Querier) ([]*timesheet.TimeSegment, error) {
	query := `SELECT ` + segmentColumns + ` FROM task_times ORDER BY task_id ASC, start_time ASC, task_time_id ASC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*timesheet.TimeSegment, error) { return scanSegment(r) })
}

// RetrieveByParent returns the segments of one task ordered by start time.
func (SegmentGateway) RetrieveByParent(ctx context.Context, q Querier, taskID uuid.UUID) ([]*timesheet.TimeSegment, error) {
	query := `SELECT ` + segmentColumns + ` FROM task_times WHERE task_id = ? ORDER BY start_time ASC, task_time_id ASC`

	rows, err := q.QueryContext(ctx, query, taskID.String())
	if err != nil {
		return nil, errors.NewConnectivity(err)
	}
	return collect(rows, func(r *sql.Rows) (*timesheet.TimeSegment, error) { return scanSegment(r) })
}

func scanSegment(row rowScanner) (*timesheet.TimeSegment, error) {
	var (
		s      timesheet.TimeSegment
		taskID string
		start  string
		end    string
	)
	if err := row.Scan(&s.ID, &taskID, &start, &end); err != nil {
		return nil, err
	}

	var err error
	if s.TaskID, err = uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("task_id %q: %w", taskID, err)
	}
	if s.Start, err = time.Parse(timeparse.TimestampLayout, start); err != nil {
		return nil, fmt.Errorf("start_time %q: %w", start, err)
	}
	if s.End, err = time.Parse(timeparse.TimestampLayout, end); err != nil {
		return nil, fmt.Errorf("end_time %q: %w", end, err)
	}
	return &s, nil
}
