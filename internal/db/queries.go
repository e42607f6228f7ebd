package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// timestampLayout stores wall-clock timestamps without an offset.
const timestampLayout = "2006-01-02T15:04:05"

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.MealtraceError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Run describes one snapshot.
type Run struct {
	ID              string `json:"id"`
	ExportPath      string `json:"export_path"`
	DateRange       string `json:"date_range"`
	GapMinutes      int    `json:"gap_minutes"`
	RecordsSeen     int    `json:"records_seen"`
	RecordsAccepted int    `json:"records_accepted"`
	CreatedAt       int64  `json:"created_at"`
}

// EventRow is one food event of a snapshot.
type EventRow struct {
	Seq            int                 `json:"seq"`
	Identity       string              `json:"identity"`
	Stable         bool                `json:"stable"`
	Food           string              `json:"food"`
	Slot           string              `json:"slot"`
	Source         string              `json:"source"`
	FirstTimestamp time.Time           `json:"first_timestamp"`
	Week           nutrition.Week      `json:"week"`
	Records        int                 `json:"records"`
	Nutrients      nutrition.Nutrients `json:"nutrients"`
}

// MealRow is one meal of a snapshot. EventSeqs reference EventRow.Seq.
type MealRow struct {
	Seq       int
	Start     time.Time
	EventSeqs []int
	Totals    nutrition.Nutrients
}

// Snapshot is everything written for one run.
type Snapshot struct {
	Run    Run
	Events []EventRow
	Meals  []MealRow
}

// RunSummary is a run with its row counts as stored.
type RunSummary struct {
	Run
	EventCount int     `json:"event_count"`
	MealCount  int     `json:"meal_count"`
	Energy     float64 `json:"energy_kcal"`
}

// WriteSnapshot stores a snapshot in a single transaction.
func WriteSnapshot(ctx context.Context, db *sql.DB, s *Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	r := s.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, export_path, date_range, gap_minutes, records_seen, records_accepted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ExportPath, r.DateRange, r.GapMinutes, r.RecordsSeen, r.RecordsAccepted, r.CreatedAt)
	if err != nil {
		return wrapInsertError(err)
	}

	evStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO food_events (
			run_id, seq, identity, stable, food, slot, source, first_ts,
			iso_year, iso_week, records, energy, protein, carbohydrate, fat, water
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer evStmt.Close()

	for _, e := range s.Events {
		n := e.Nutrients
		_, err := evStmt.ExecContext(ctx,
			r.ID, e.Seq, e.Identity, e.Stable, e.Food, e.Slot, e.Source, e.FirstTimestamp.Format(timestampLayout),
			e.Week.Year, e.Week.Week, e.Records,
			n.Get(nutrition.Energy), n.Get(nutrition.Protein), n.Get(nutrition.Carbohydrate), n.Get(nutrition.Fat), n.Get(nutrition.Water),
		)
		if err != nil {
			return wrapInsertError(err)
		}
	}

	for _, m := range s.Meals {
		n := m.Totals
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meals (run_id, seq, start_ts, energy, protein, carbohydrate, fat, water)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, m.Seq, m.Start.Format(timestampLayout),
			n.Get(nutrition.Energy), n.Get(nutrition.Protein), n.Get(nutrition.Carbohydrate), n.Get(nutrition.Fat), n.Get(nutrition.Water))
		if err != nil {
			return wrapInsertError(err)
		}
		for _, seq := range m.EventSeqs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meal_events (run_id, meal_seq, event_seq) VALUES (?, ?, ?)`,
				r.ID, m.Seq, seq,
			); err != nil {
				return wrapInsertError(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func wrapInsertError(err error) error {
	if isUniqueConstraintError(err) {
		return ErrUniqueConstraint
	}
	return errors.NewInternal(err)
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const runSummaryQuery = `
	SELECT r.id, r.export_path, r.date_range, r.gap_minutes, r.records_seen, r.records_accepted, r.created_at,
		(SELECT COUNT(*) FROM food_events e WHERE e.run_id = r.id),
		(SELECT COUNT(*) FROM meals m WHERE m.run_id = r.id),
		(SELECT COALESCE(SUM(e.energy), 0) FROM food_events e WHERE e.run_id = r.id)
	FROM runs r
`

// GetRunSummary reads a run and its stored row counts.
func GetRunSummary(ctx context.Context, db *sql.DB, id string) (*RunSummary, error) {
	row := db.QueryRowContext(ctx, runSummaryQuery+` WHERE r.id = ?`, id)
	s, err := scanRunSummary(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRunNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListRuns returns up to limit runs, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]RunSummary, error) {
	rows, err := db.QueryContext(ctx, runSummaryQuery+` ORDER BY r.created_at DESC, r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		s, err := scanRunSummary(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// ListEvents returns the food events of a run in sequence order.
func ListEvents(ctx context.Context, db *sql.DB, runID string) ([]EventRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, identity, stable, food, slot, source, first_ts, iso_year, iso_week, records,
			energy, protein, carbohydrate, fat, water
		FROM food_events
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		var ts string
		var energy, protein, carbs, fat, water float64
		if err := rows.Scan(&e.Seq, &e.Identity, &e.Stable, &e.Food, &e.Slot, &e.Source, &ts,
			&e.Week.Year, &e.Week.Week, &e.Records, &energy, &protein, &carbs, &fat, &water); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.FirstTimestamp, err = time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Nutrients.Add(nutrition.Energy, energy)
		e.Nutrients.Add(nutrition.Protein, protein)
		e.Nutrients.Add(nutrition.Carbohydrate, carbs)
		e.Nutrients.Add(nutrition.Fat, fat)
		e.Nutrients.Add(nutrition.Water, water)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteRun removes a run and, through foreign keys, its rows.
func DeleteRun(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewRunNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRunSummary(row scanner) (*RunSummary, error) {
	var s RunSummary
	err := row.Scan(&s.ID, &s.ExportPath, &s.DateRange, &s.GapMinutes, &s.RecordsSeen, &s.RecordsAccepted, &s.CreatedAt,
		&s.EventCount, &s.MealCount, &s.Energy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
