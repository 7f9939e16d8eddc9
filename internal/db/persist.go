package db

import (
	"context"
	"database/sql"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/sheetload/internal/errors"
	"github.com/hpungsan/sheetload/internal/timesheet"
)

// PersistResult counts what a Persist call wrote and what it found already present.
type PersistResult struct {
	ProjectsInserted int `json:"projects_inserted"`
	ProjectsSkipped  int `json:"projects_skipped"`
	TasksInserted    int `json:"tasks_inserted"`
	TasksSkipped     int `json:"tasks_skipped"`
	SegmentsInserted int `json:"segments_inserted"`
	// ProjectsRefreshed counts stored projects whose totals were recomputed
	// because a re-import added tasks to them.
	ProjectsRefreshed int `json:"projects_refreshed"`
}

func (r *PersistResult) add(o PersistResult) {
	r.ProjectsInserted += o.ProjectsInserted
	r.ProjectsSkipped += o.ProjectsSkipped
	r.TasksInserted += o.TasksInserted
	r.TasksSkipped += o.TasksSkipped
	r.SegmentsInserted += o.SegmentsInserted
	r.ProjectsRefreshed += o.ProjectsRefreshed
}

// Persist writes reconciled projects depth-first: project row, then each task
// row followed by its segments. Every project subtree runs in its own
// transaction. Up to workers subtrees are written concurrently.
//
// Duplicates are skipped per entity. Any other failure rolls back that
// project, cancels the remaining ones and is returned.
func Persist(ctx context.Context, database *sql.DB, projects []*timesheet.Project, workers int, log logrus.FieldLogger) (*PersistResult, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		mu    sync.Mutex
		total PersistResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range projects {
		g.Go(func() error {
			res, err := persistProject(gctx, database, p, log.WithFields(logrus.Fields{
				"project":    p.Name,
				"project_id": p.ID.String(),
			}))
			if err != nil {
				return err
			}
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &total, err
	}
	return &total, nil
}

func persistProject(ctx context.Context, database *sql.DB, p *timesheet.Project, log logrus.FieldLogger) (PersistResult, error) {
	var res PersistResult

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return res, errors.NewConnectivity(err)
	}
	defer tx.Rollback()

	existing := false
	if _, err := Projects.InsertOne(ctx, tx, p); err != nil {
		if !errors.Is(err, errors.ErrDuplicate) {
			return PersistResult{}, err
		}
		existing = true
		res.ProjectsSkipped++
		log.Debug("project already stored")
	} else {
		res.ProjectsInserted++
	}

	for _, t := range p.Tasks {
		if _, err := Tasks.InsertOne(ctx, tx, t); err != nil {
			if !errors.Is(err, errors.ErrDuplicate) {
				return PersistResult{}, err
			}
			res.TasksSkipped++
			log.WithField("task", t.Name).Debug("task already stored")
			continue
		}
		res.TasksInserted++

		for i := range t.Segments {
			if _, err := Segments.InsertOne(ctx, tx, &t.Segments[i]); err != nil {
				return PersistResult{}, err
			}
			res.SegmentsInserted++
		}
	}

	if existing && res.TasksInserted > 0 {
		if err := RefreshProjectTotals(ctx, tx, p.ID); err != nil {
			return PersistResult{}, err
		}
		res.ProjectsRefreshed++
		log.WithField("tasks", res.TasksInserted).Info("existing project gained tasks")
	}

	if err := tx.Commit(); err != nil {
		return PersistResult{}, errors.NewConnectivity(err)
	}
	return res, nil
}
