package ops

import (
	"context"
	"crypto/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/db"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/logger"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// SnapshotInput contains parameters for the Snapshot operation.
type SnapshotInput struct {
	ReportInput
	GapMinutes int    // optional, 0 means configured default
	DBPath     string // optional, default: ~/.mealtrace/snapshots.db
}

// SnapshotOutput contains the result of the Snapshot operation.
// Counts are read back from the database after the write.
type SnapshotOutput struct {
	RunID      string  `json:"run_id"`
	DBPath     string  `json:"db_path"`
	Range      string  `json:"range"`
	GapMinutes int     `json:"gap_minutes"`
	Events     int     `json:"events"`
	Meals      int     `json:"meals"`
	Energy     float64 `json:"energy_kcal"`
	CreatedAt  int64   `json:"created_at"`
}

// Snapshot writes the food events and meals of one run into a SQLite file.
func Snapshot(ctx context.Context, cfg *config.Config, input SnapshotInput) (*SnapshotOutput, error) {
	gap, err := MealGap(cfg, input.GapMinutes)
	if err != nil {
		return nil, err
	}

	dbPath := strings.TrimSpace(input.DBPath)
	if dbPath == "" {
		dbPath, err = db.DefaultPath()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if containsTraversal(dbPath) {
		return nil, errors.NewInvalidRequest("db path must not contain directory traversal (..)")
	}
	dbPath, err = filepath.Abs(filepath.Clean(dbPath))
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	ds, rng, err := prepare(ctx, cfg, input.ReportInput)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	snap := BuildSnapshot(ds, rng, gap, newRunID(now))
	snap.Run.ExportPath = input.Path
	snap.Run.CreatedAt = now.Unix()

	database, err := db.Open(dbPath)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer database.Close()

	if err := db.WriteSnapshot(ctx, database, snap); err != nil {
		return nil, err
	}

	summary, err := db.GetRunSummary(ctx, database, snap.Run.ID)
	if err != nil {
		return nil, err
	}

	log := logger.Named("snapshot")
	log.Info().
		Str("run_id", summary.ID).
		Str("db", dbPath).
		Int("events", summary.EventCount).
		Int("meals", summary.MealCount).
		Msg("snapshot written")

	return &SnapshotOutput{
		RunID:      summary.ID,
		DBPath:     dbPath,
		Range:      summary.DateRange,
		GapMinutes: summary.GapMinutes,
		Events:     summary.EventCount,
		Meals:      summary.MealCount,
		Energy:     summary.Energy,
		CreatedAt:  summary.CreatedAt,
	}, nil
}

// BuildSnapshot converts a dataset into snapshot rows. Events are numbered in
// first-seen order; meals reference them by that number.
func BuildSnapshot(ds *Dataset, rng DateRange, gap time.Duration, runID string) *db.Snapshot {
	events := ds.FoodEvents(rng)

	snap := &db.Snapshot{
		Run: db.Run{
			ID:              runID,
			DateRange:       rng.String(),
			GapMinutes:      int(gap / time.Minute),
			RecordsSeen:     ds.Stats.Seen,
			RecordsAccepted: ds.Stats.Accepted,
		},
		Events: make([]db.EventRow, len(events)),
	}

	seqOf := make(map[*nutrition.FoodEvent]int, len(events))
	for i, ev := range events {
		seqOf[ev] = i + 1
		snap.Events[i] = db.EventRow{
			Seq:            i + 1,
			Identity:       ev.Identity.String(),
			Stable:         ev.Identity.IsStable(),
			Food:           ev.DisplayName(),
			Slot:           ev.SlotLabel(),
			Source:         ev.Source,
			FirstTimestamp: ev.FirstTimestamp,
			Week:           ev.Week(),
			Records:        ev.Records,
			Nutrients:      ev.Nutrients,
		}
	}

	for i, m := range SegmentMeals(events, gap) {
		row := db.MealRow{Seq: i + 1, Start: m.Start(), Totals: m.Totals()}
		for _, ev := range m.Events {
			row.EventSeqs = append(row.EventSeqs, seqOf[ev])
		}
		snap.Meals = append(snap.Meals, row)
	}
	return snap
}

// newRunID generates a new ULID for a snapshot run.
func newRunID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
