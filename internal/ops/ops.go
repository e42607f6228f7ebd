package ops

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hpungsan/mealtrace/internal/config"
	"github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// Limits on user-supplied parameters.
const (
	DefaultMealGapMinutes = 30
	MaxMealGapMinutes     = 24 * 60
)

// RecordSource yields raw records in document order.
// Next returns io.EOF after the last record.
type RecordSource interface {
	Next() (nutrition.RawRecord, error)
}

// SliceSource serves records from memory. Records without a position are
// numbered by their index.
type SliceSource struct {
	records []nutrition.RawRecord
	next    int
}

// NewSliceSource returns a source over records.
func NewSliceSource(records []nutrition.RawRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements RecordSource.
func (s *SliceSource) Next() (nutrition.RawRecord, error) {
	if s.next >= len(s.records) {
		return nutrition.RawRecord{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	if rec.Position == 0 {
		rec.Position = s.next
	}
	return rec, nil
}

// LoadOptions controls which records are accepted and how they are keyed.
type LoadOptions struct {
	Filter      *nutrition.SourceFilter
	Schema      nutrition.Schema
	RecordTypes map[string]nutrition.NutrientKind
	Resolver    nutrition.Resolver
}

// DefaultLoadOptions matches YAZIO and FDDB with the HealthKit dietary types.
func DefaultLoadOptions() LoadOptions {
	opts, _ := LoadOptionsFromConfig(config.DefaultConfig(), nil)
	return opts
}

// LoadOptionsFromConfig builds load options from cfg. Non-empty sources replace
// the configured source tags.
func LoadOptionsFromConfig(cfg *config.Config, sources []string) (LoadOptions, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	tags := cfg.SourceTags
	if len(sources) > 0 {
		tags = sources
	}

	types, err := nutrition.RecordTypes(cfg.RecordTypes)
	if err != nil {
		return LoadOptions{}, errors.NewInvalidRequest(err.Error())
	}

	granularity := time.Minute
	if g := strings.TrimSpace(cfg.FallbackGranularity); g != "" {
		granularity, err = time.ParseDuration(g)
		if err != nil || granularity <= 0 {
			return LoadOptions{}, errors.NewInvalidRequest(fmt.Sprintf("invalid fallback_granularity %q", g))
		}
	}

	schema := nutrition.DefaultSchema()
	if cfg.FoodNameKey != "" {
		schema.FoodNameKey = cfg.FoodNameKey
	}
	if cfg.ExternalIDKey != "" {
		schema.ExternalIDKey = cfg.ExternalIDKey
	}
	if cfg.MealSlotKey != "" {
		schema.MealSlotKey = cfg.MealSlotKey
	}

	return LoadOptions{
		Filter:      nutrition.NewSourceFilter(tags),
		Schema:      schema,
		RecordTypes: types,
		Resolver:    nutrition.TruncatingResolver{Granularity: granularity},
	}, nil
}

// MealGap resolves the meal gap threshold. A positive override wins over the
// configured value; the result is validated against MaxMealGapMinutes.
func MealGap(cfg *config.Config, overrideMinutes int) (time.Duration, error) {
	minutes := DefaultMealGapMinutes
	if cfg != nil && cfg.MealGapMinutes > 0 {
		minutes = cfg.MealGapMinutes
	}
	if overrideMinutes < 0 {
		return 0, errors.NewInvalidRequest("gap must not be negative")
	}
	if overrideMinutes > 0 {
		minutes = overrideMinutes
	}
	if minutes > MaxMealGapMinutes {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("gap exceeds maximum of %d minutes", MaxMealGapMinutes))
	}
	return time.Duration(minutes) * time.Minute, nil
}
