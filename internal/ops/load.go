package ops

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/logger"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// LoadStats counts what happened to each record during Load.
type LoadStats struct {
	Seen            int `json:"seen"`
	SourceSkipped   int `json:"source_skipped"`
	MetadataSkipped int `json:"metadata_skipped"`
	Accepted        int `json:"accepted"`
	Unrecognized    int `json:"unrecognized"`
}

// Dataset holds the accepted entries of one export in document order.
// It is immutable after Load and safe for concurrent readers.
type Dataset struct {
	Entries  []nutrition.Entry
	Stats    LoadStats
	resolver nutrition.Resolver
}

// Load reads every record from src, keeps the ones that pass the source and
// metadata filters, and parses their start time and value.
//
// A malformed start date or nutrient value on an accepted record aborts the
// load with an error naming the record position.
func Load(ctx context.Context, src RecordSource, opts LoadOptions) (*Dataset, error) {
	def := DefaultLoadOptions()
	if opts.Filter == nil {
		opts.Filter = def.Filter
	}
	if opts.Schema == (nutrition.Schema{}) {
		opts.Schema = def.Schema
	}
	if opts.RecordTypes == nil {
		opts.RecordTypes = def.RecordTypes
	}
	if opts.Resolver == nil {
		opts.Resolver = def.Resolver
	}

	ds := &Dataset{resolver: opts.Resolver}
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("load")
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ds.Stats.Seen++

		if !opts.Filter.Match(rec.Source) {
			ds.Stats.SourceSkipped++
			continue
		}

		fields := opts.Schema.Extract(rec.Metadata)
		if fields.FoodName == "" && fields.ExternalID == "" {
			ds.Stats.MetadataSkipped++
			continue
		}

		entry, err := parseEntry(rec, fields, opts.RecordTypes)
		if err != nil {
			return nil, err
		}
		if !entry.HasKind {
			ds.Stats.Unrecognized++
		}
		ds.Entries = append(ds.Entries, entry)
		ds.Stats.Accepted++
	}

	log := logger.Named("loader")
	log.Info().
		Int("seen", ds.Stats.Seen).
		Int("source_skipped", ds.Stats.SourceSkipped).
		Int("metadata_skipped", ds.Stats.MetadataSkipped).
		Int("accepted", ds.Stats.Accepted).
		Int("unrecognized", ds.Stats.Unrecognized).
		Msg("export loaded")

	return ds, nil
}

func parseEntry(rec nutrition.RawRecord, fields nutrition.Fields, types map[string]nutrition.NutrientKind) (nutrition.Entry, error) {
	start, err := nutrition.ParseStart(rec.StartDate)
	if err != nil {
		return nutrition.Entry{}, errors.NewMalformedTimestamp(rec.Position, rec.StartDate)
	}

	entry := nutrition.Entry{
		Position: rec.Position,
		Source:   rec.Source,
		Fields:   fields,
		Start:    start,
		Local:    nutrition.WallClock(start),
	}

	kind, ok := types[rec.Type]
	if !ok {
		return entry, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec.Value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nutrition.Entry{}, errors.NewMalformedValue(rec.Position, rec.Type, rec.Value)
	}
	entry.HasKind = true
	entry.Kind = kind
	entry.Value = v
	return entry, nil
}

// FoodEvents resolves and aggregates the entries whose wall-clock start falls
// in r. Events are returned in first-seen order.
func (d *Dataset) FoodEvents(r DateRange) []*nutrition.FoodEvent {
	agg := NewAggregator(d.resolver)
	for _, e := range d.Entries {
		if !r.Contains(e.Local) {
			continue
		}
		agg.Add(e)
	}
	return agg.Events()
}
