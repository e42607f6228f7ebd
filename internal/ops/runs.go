package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/mealtrace/internal/db"
	"github.com/hpungsan/mealtrace/internal/errors"
)

// Run listing limits
const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 200
)

// RunsInput contains parameters for the Runs operation.
type RunsInput struct {
	DBPath string // optional, default: ~/.mealtrace/snapshots.db
	Limit  int    // optional, default: 20, max: 200
}

// RunsOutput contains the result of the Runs operation.
type RunsOutput struct {
	Runs []db.RunSummary `json:"runs"`
}

// Runs lists stored snapshot runs, newest first.
func Runs(ctx context.Context, input RunsInput) (*RunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	if limit > MaxRunsLimit {
		limit = MaxRunsLimit
	}

	database, err := openSnapshotDB(input.DBPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	runs, err := db.ListRuns(ctx, database, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []db.RunSummary{}
	}
	return &RunsOutput{Runs: runs}, nil
}

// RunEventsInput contains parameters for the RunEvents operation.
type RunEventsInput struct {
	DBPath string
	RunID  string // required
}

// RunEventsOutput contains the stored events of one run.
type RunEventsOutput struct {
	Run    db.RunSummary `json:"run"`
	Events []db.EventRow `json:"events"`
}

// RunEvents reads back the food events stored for a run, in sequence order.
func RunEvents(ctx context.Context, input RunEventsInput) (*RunEventsOutput, error) {
	id := strings.TrimSpace(input.RunID)
	if id == "" {
		return nil, errors.NewInvalidRequest("run id is required")
	}

	database, err := openSnapshotDB(input.DBPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	summary, err := db.GetRunSummary(ctx, database, id)
	if err != nil {
		return nil, err
	}
	events, err := db.ListEvents(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []db.EventRow{}
	}
	return &RunEventsOutput{Run: *summary, Events: events}, nil
}

// DeleteRunInput contains parameters for the DeleteRun operation.
type DeleteRunInput struct {
	DBPath string
	RunID  string // required
}

// DeleteRunOutput reports the removed run.
type DeleteRunOutput struct {
	RunID   string `json:"run_id"`
	Deleted bool   `json:"deleted"`
}

// DeleteRun removes a stored run with its events and meals.
func DeleteRun(ctx context.Context, input DeleteRunInput) (*DeleteRunOutput, error) {
	id := strings.TrimSpace(input.RunID)
	if id == "" {
		return nil, errors.NewInvalidRequest("run id is required")
	}

	database, err := openSnapshotDB(input.DBPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if err := db.DeleteRun(ctx, database, id); err != nil {
		return nil, err
	}
	return &DeleteRunOutput{RunID: id, Deleted: true}, nil
}

func openSnapshotDB(path string) (*sql.DB, error) {
	dbPath := strings.TrimSpace(path)
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultPath()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if containsTraversal(dbPath) {
		return nil, errors.NewInvalidRequest("db path must not contain directory traversal (..)")
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return database, nil
}
