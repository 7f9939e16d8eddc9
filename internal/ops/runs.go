package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/sheetload/internal/db"
)

// ListRunsOutput contains recorded import runs, newest first.
type ListRunsOutput struct {
	Items []*db.ImportRun `json:"items"`
}

// ListRuns returns every recorded import run.
func ListRuns(ctx context.Context, database *sql.DB) (*ListRunsOutput, error) {
	items, err := db.Runs.RetrieveAll(ctx, database)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*db.ImportRun{}
	}
	return &ListRunsOutput{Items: items}, nil
}
