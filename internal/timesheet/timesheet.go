// Package timesheet reconstructs the Project → Task → TimeSegment hierarchy
// from flat timesheet rows.
package timesheet

import (
	"time"

	"github.com/google/uuid"
)

// Project is a named, dated unit of billable work.
type Project struct {
	// ID is derived from Name and Date (see identity.ProjectID)
	ID uuid.UUID `json:"project_id"`

	Name string `json:"project_name"`

	// Date is the calendar date of the project (time of day is zero)
	Date time.Time `json:"project_date"`

	// PayRate is the hourly rate
	PayRate float64 `json:"pay_rate"`

	// DurationMS is the sum of all segment durations in milliseconds
	DurationMS int64 `json:"project_duration"`

	// TotalPay is always Hours() * PayRate; see Recompute
	TotalPay float64 `json:"total_pay"`

	Tasks []*Task `json:"tasks,omitempty"`
}

// Task groups contiguous segments worked on under one project.
type Task struct {
	// ID is derived from ProjectID, Name and StartedAt (see identity.TaskID)
	ID        uuid.UUID `json:"task_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"task_name"`

	// DurationMS is the sum of Segments' durations
	DurationMS int64 `json:"task_duration"`

	// StartedAt is the start of the first segment
	StartedAt time.Time `json:"task_date_time"`

	Segments []TimeSegment `json:"segments,omitempty"`
}

// TimeSegment is one clocked interval. ID is assigned by the store.
type TimeSegment struct {
	ID     int64     `json:"task_time_id"`
	TaskID uuid.UUID `json:"task_id"`
	Start  time.Time `json:"start_time"`
	End    time.Time `json:"end_time"`
}

// DurationMS returns End-Start in milliseconds.
func (s TimeSegment) DurationMS() int64 {
	return s.End.Sub(s.Start).Milliseconds()
}

// Hours converts the accumulated duration to fractional hours.
func (p *Project) Hours() float64 {
	return float64(p.DurationMS) / 60000 / 60
}

// Recompute refreshes TotalPay from DurationMS and PayRate.
func (p *Project) Recompute() {
	p.TotalPay = p.Hours() * p.PayRate
}

// AddDuration adds ms to the project's running total and recomputes pay.
func (p *Project) AddDuration(ms int64) {
	p.DurationMS += ms
	p.Recompute()
}

// AddSegment appends seg and adds its duration to the task's total.
func (t *Task) AddSegment(seg TimeSegment) {
	seg.TaskID = t.ID
	t.Segments = append(t.Segments, seg)
	t.DurationMS += seg.DurationMS()
}
