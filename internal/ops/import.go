package ops

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/sheetload/internal/config"
	"github.com/hpungsan/sheetload/internal/db"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path      string // required
	NoHeaders bool   // first row is data, columns are positional
	Workers   int    // 0: cfg.Workers
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	RunID    string `json:"run_id"`
	Rows     int    `json:"rows"`
	Projects int    `json:"projects"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`

	TasksInserted     int `json:"tasks_inserted"`
	TasksSkipped      int `json:"tasks_skipped"`
	SegmentsInserted  int `json:"segments_inserted"`
	ProjectsRefreshed int `json:"projects_refreshed"`
}

// Import loads a timesheet CSV into the store.
//
// The whole file is read, normalized, folded and reconciled in memory first.
// A format, parse or consistency error returns before the store is touched.
// Once persistence starts the attempt is recorded as an import run, whether
// it succeeds or not.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, log logrus.FieldLogger, input ImportInput) (*ImportOutput, error) {
	if err := ValidateInputPath(input.Path, cfg); err != nil {
		return nil, err
	}

	workers := input.Workers
	if workers <= 0 && cfg != nil {
		workers = cfg.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	run := db.NewImportRun(input.Path, time.Now())
	log = log.WithField("run_id", run.ID)

	projects, rows, err := loadFile(input.Path, !input.NoHeaders)
	if err != nil {
		log.WithError(err).WithField("path", input.Path).Error("timesheet rejected")
		return nil, err
	}
	run.Rows = rows
	run.Projects = len(projects)
	log.WithFields(logrus.Fields{
		"path":     input.Path,
		"rows":     rows,
		"projects": len(projects),
	}).Info("import started")

	if _, err := db.Runs.InsertOne(ctx, database, run); err != nil {
		return nil, err
	}

	res, err := db.Persist(ctx, database, projects, workers, log)
	if res != nil {
		run.Inserted = res.ProjectsInserted
		run.Skipped = res.ProjectsSkipped
	}
	finishRun(ctx, database, log, run, err)
	if err != nil {
		log.WithError(err).Error("import failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"inserted": res.ProjectsInserted,
		"skipped":  res.ProjectsSkipped,
	}).Info("import finished")

	return &ImportOutput{
		RunID:             run.ID,
		Rows:              run.Rows,
		Projects:          run.Projects,
		Inserted:          res.ProjectsInserted,
		Skipped:           res.ProjectsSkipped,
		TasksInserted:     res.TasksInserted,
		TasksSkipped:      res.TasksSkipped,
		SegmentsInserted:  res.SegmentsInserted,
		ProjectsRefreshed: res.ProjectsRefreshed,
	}, nil
}

// loadFile reads and folds a timesheet into reconciled projects.
// It returns the number of data rows read.
func loadFile(path string, hasHeader bool) ([]*timesheet.Project, int, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	rows, err := timesheet.ReadRows(f, hasHeader)
	if err != nil {
		return nil, 0, err
	}

	name := filepath.Base(path)
	records, err := timesheet.NormalizeRows(rows, name)
	if err != nil {
		return nil, len(rows), err
	}
	built, err := timesheet.Build(records, name)
	if err != nil {
		return nil, len(rows), err
	}
	return timesheet.Reconcile(built), len(rows), nil
}

// finishRun records the outcome of run. Failures are logged, not returned,
// so the import's own error is what the caller sees.
func finishRun(ctx context.Context, database *sql.DB, log logrus.FieldLogger, run *db.ImportRun, importErr error) {
	finished := time.Now().Unix()
	run.FinishedAt = &finished
	run.Status = db.RunSucceeded
	if importErr != nil {
		run.Status = db.RunFailed
		run.Error = importErr.Error()
	}
	if err := db.FinishRun(context.WithoutCancel(ctx), database, run); err != nil {
		log.WithError(err).Warn("failed to record import run")
	}
}
