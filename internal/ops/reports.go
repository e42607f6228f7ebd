package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/healthexport"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// ReportInput holds the parameters shared by every report.
type ReportInput struct {
	Path    string   // export.xml or export.zip
	From    string   // optional YYYY-MM-DD, inclusive
	To      string   // optional YYYY-MM-DD, inclusive
	Sources []string // optional, replaces configured source tags
}

// FoodRow is one food event flattened for output.
type FoodRow struct {
	Date      string              `json:"date"`
	Time      string              `json:"time"`
	Food      string              `json:"food"`
	Slot      string              `json:"slot"`
	Source    string              `json:"source"`
	Identity  string              `json:"identity"`
	Stable    bool                `json:"stable"`
	Records   int                 `json:"records"`
	Nutrients nutrition.Nutrients `json:"nutrients"`
}

// FoodsOutput contains the result of the Foods operation.
type FoodsOutput struct {
	Range string              `json:"range"`
	Stats LoadStats           `json:"stats"`
	Foods []FoodRow           `json:"foods"`
	Total nutrition.Nutrients `json:"total"`
}

// MealsInput contains parameters for the Meals operation.
type MealsInput struct {
	ReportInput
	GapMinutes int // optional, 0 means configured default
}

// MealsOutput contains the result of the Meals operation.
type MealsOutput struct {
	Range      string        `json:"range"`
	GapMinutes int           `json:"gap_minutes"`
	Stats      LoadStats     `json:"stats"`
	Meals      []MealSummary `json:"meals"`
}

// WeeklyFoodsOutput contains the result of the WeeklyFoods operation.
type WeeklyFoodsOutput struct {
	Range string        `json:"range"`
	Stats LoadStats     `json:"stats"`
	Rows  []WeekFoodRow `json:"rows"`
}

// WeeklySlotsOutput contains the result of the WeeklySlots operation.
type WeeklySlotsOutput struct {
	Range string      `json:"range"`
	Stats LoadStats   `json:"stats"`
	Weeks []WeekSlots `json:"weeks"`
}

// OpenDataset loads the export at path with options derived from cfg.
func OpenDataset(ctx context.Context, cfg *config.Config, path string, sources []string) (*Dataset, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.NewInvalidRequest("export path is required")
	}
	opts, err := LoadOptionsFromConfig(cfg, sources)
	if err != nil {
		return nil, err
	}

	r, err := healthexport.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Load(ctx, r, opts)
}

func prepare(ctx context.Context, cfg *config.Config, in ReportInput) (*Dataset, DateRange, error) {
	rng, err := ParseDateRange(in.From, in.To)
	if err != nil {
		return nil, DateRange{}, err
	}
	ds, err := OpenDataset(ctx, cfg, in.Path, in.Sources)
	if err != nil {
		return nil, DateRange{}, err
	}
	return ds, rng, nil
}

// Foods lists every food event in first-seen order.
func Foods(ctx context.Context, cfg *config.Config, input ReportInput) (*FoodsOutput, error) {
	ds, rng, err := prepare(ctx, cfg, input)
	if err != nil {
		return nil, err
	}
	return FoodsReport(ds, rng), nil
}

// FoodsReport builds the Foods output from a loaded dataset.
func FoodsReport(ds *Dataset, rng DateRange) *FoodsOutput {
	events := ds.FoodEvents(rng)
	out := &FoodsOutput{
		Range: rng.String(),
		Stats: ds.Stats,
		Foods: make([]FoodRow, len(events)),
	}
	for i, ev := range events {
		out.Foods[i] = FoodRow{
			Date:      ev.FirstTimestamp.Format(DateLayout),
			Time:      ev.FirstTimestamp.Format(time.TimeOnly),
			Food:      ev.DisplayName(),
			Slot:      ev.SlotLabel(),
			Source:    ev.Source,
			Identity:  ev.Identity.String(),
			Stable:    ev.Identity.IsStable(),
			Records:   ev.Records,
			Nutrients: ev.Nutrients,
		}
		out.Total = out.Total.Plus(ev.Nutrients)
	}
	return out
}

// Meals segments food events into meals by time gap.
func Meals(ctx context.Context, cfg *config.Config, input MealsInput) (*MealsOutput, error) {
	gap, err := MealGap(cfg, input.GapMinutes)
	if err != nil {
		return nil, err
	}
	ds, rng, err := prepare(ctx, cfg, input.ReportInput)
	if err != nil {
		return nil, err
	}
	return MealsReport(ds, rng, gap), nil
}

// MealsReport builds the Meals output from a loaded dataset.
func MealsReport(ds *Dataset, rng DateRange, gap time.Duration) *MealsOutput {
	meals := SegmentMeals(ds.FoodEvents(rng), gap)
	return &MealsOutput{
		Range:      rng.String(),
		GapMinutes: int(gap / time.Minute),
		Stats:      ds.Stats,
		Meals:      MealSummaries(meals),
	}
}

// WeeklyFoods counts food events and their energy per ISO week and food.
func WeeklyFoods(ctx context.Context, cfg *config.Config, input ReportInput) (*WeeklyFoodsOutput, error) {
	ds, rng, err := prepare(ctx, cfg, input)
	if err != nil {
		return nil, err
	}
	return WeeklyFoodsReport(ds, rng), nil
}

// WeeklyFoodsReport builds the WeeklyFoods output from a loaded dataset.
func WeeklyFoodsReport(ds *Dataset, rng DateRange) *WeeklyFoodsOutput {
	return &WeeklyFoodsOutput{
		Range: rng.String(),
		Stats: ds.Stats,
		Rows:  WeeklyByFood(ds.FoodEvents(rng)),
	}
}

// WeeklySlots counts foods per ISO week and meal slot.
func WeeklySlots(ctx context.Context, cfg *config.Config, input ReportInput) (*WeeklySlotsOutput, error) {
	ds, rng, err := prepare(ctx, cfg, input)
	if err != nil {
		return nil, err
	}
	return WeeklySlotsReport(ds, rng), nil
}

// WeeklySlotsReport builds the WeeklySlots output from a loaded dataset.
func WeeklySlotsReport(ds *Dataset, rng DateRange) *WeeklySlotsOutput {
	return &WeeklySlotsOutput{
		Range: rng.String(),
		Stats: ds.Stats,
		Weeks: WeeklyBySlot(ds.FoodEvents(rng)),
	}
}
