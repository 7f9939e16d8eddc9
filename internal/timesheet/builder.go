package timesheet

import (
	"fmt"
	"time"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/identity"
	"github.com/hpungsan/sheetload/internal/timeparse"
)

// foldState tracks which entities are open while folding rows.
type foldState int

const (
	stateEmpty       foldState = iota // no project open yet
	stateProjectOpen                  // project open, no task
	stateTaskOpen                     // project and task open
)

func (s foldState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateProjectOpen:
		return "project-open"
	case stateTaskOpen:
		return "task-open"
	default:
		return fmt.Sprintf("foldState(%d)", int(s))
	}
}

// builder is the fold accumulator. Date and rate carry forward across rows;
// a rate on a row without a project is ignored.
type builder struct {
	file    string
	state   foldState
	project *Project
	task    *Task
	date    *time.Time
	rate    float64
	out     []*Project
}

// Build folds ordered records into projects in a single pass. Rows of one
// task must be contiguous, as must rows of one project block; repeated
// project blocks are left for Reconcile to merge.
//
// A segment whose clock span differs from the row's reported duration is a
// CONSISTENCY_ERROR and aborts the fold.
func Build(records []Record, file string) ([]*Project, error) {
	b := &builder{file: file}
	for _, rec := range records {
		if err := b.step(rec); err != nil {
			return nil, err
		}
	}
	b.closeProject()
	return b.out, nil
}

func (b *builder) step(rec Record) error {
	if rec.Date != nil {
		d := timeparse.DateOnly(*rec.Date)
		b.date = &d
	}
	if rec.Project != nil {
		// Rate is read from project rows only.
		if rec.PayRate != nil {
			b.rate = *rec.PayRate
		}
		if b.date == nil {
			return errors.NewParse(fmt.Sprintf("project %q has no date", *rec.Project)).AtRow(b.file, rec.Line)
		}
		b.openProject(*rec.Project)
	}
	if b.state == stateEmpty {
		return errors.NewParse("row precedes the first project").AtRow(b.file, rec.Line)
	}

	start := timeparse.Combine(*b.date, rec.Start)
	end := timeparse.Combine(*b.date, rec.End)

	// Repeating the open task's name continues it rather than starting a new one.
	if rec.Task != nil && (b.state != stateTaskOpen || b.task.Name != *rec.Task) {
		b.openTask(*rec.Task, start)
	}
	if b.state != stateTaskOpen {
		return errors.NewParse(fmt.Sprintf("project %q has a time entry before its first task", b.project.Name)).AtRow(b.file, rec.Line)
	}

	seg := TimeSegment{Start: start, End: end}
	span := seg.DurationMS()
	if reported := rec.Duration.Milliseconds(); span < 0 || span != reported {
		return errors.NewConsistency(rec.Line, span, reported).WithDetail("file", b.file)
	}

	b.task.AddSegment(seg)
	b.project.AddDuration(span)
	return nil
}

// openProject closes whatever is open and starts a new project.
func (b *builder) openProject(name string) {
	b.closeProject()
	b.project = &Project{
		ID:      identity.ProjectID(name, *b.date),
		Name:    name,
		Date:    *b.date,
		PayRate: b.rate,
	}
	b.project.Recompute()
	b.state = stateProjectOpen
}

// openTask closes the open task, if any, and starts a new one.
func (b *builder) openTask(name string, start time.Time) {
	b.closeTask()
	b.task = &Task{
		ID:        identity.TaskID(b.project.ID, name, start),
		ProjectID: b.project.ID,
		Name:      name,
		StartedAt: start,
	}
	b.state = stateTaskOpen
}

func (b *builder) closeTask() {
	if b.state == stateTaskOpen {
		b.project.Tasks = append(b.project.Tasks, b.task)
		b.task = nil
		b.state = stateProjectOpen
	}
}

func (b *builder) closeProject() {
	b.closeTask()
	if b.state == stateProjectOpen {
		b.project.Recompute()
		b.out = append(b.out, b.project)
		b.project = nil
		b.state = stateEmpty
	}
}
