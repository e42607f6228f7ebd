package nutrition

import (
	"strings"
	"time"
)

// StartDateLayout is the timestamp format used by Health exports.
const StartDateLayout = "2006-01-02 15:04:05 -0700"

// UnknownLabel is shown for a missing food name or meal slot.
const UnknownLabel = "UNKNOWN"

// RawRecord is one record as emitted by the export adapter, before any parsing.
type RawRecord struct {
	// Position is the 1-based ordinal of the record in the export document
	Position int

	Source    string
	Type      string
	Value     string
	StartDate string
	Metadata  map[string]string
}

// Schema names the metadata keys the pipeline understands.
type Schema struct {
	FoodNameKey   string
	ExternalIDKey string
	MealSlotKey   string
}

// DefaultSchema returns the metadata keys written by YAZIO and FDDB.
func DefaultSchema() Schema {
	return Schema{
		FoodNameKey:   "HKFoodType",
		ExternalIDKey: "HKExternalUUID",
		MealSlotKey:   "Mahlzeit",
	}
}

// Fields is the typed view of a record's metadata. Empty means absent.
type Fields struct {
	FoodName   string
	ExternalID string
	MealSlot   string
}

// Extract reads the known fields from md.
func (s Schema) Extract(md map[string]string) Fields {
	return Fields{
		FoodName:   strings.TrimSpace(md[s.FoodNameKey]),
		ExternalID: strings.TrimSpace(md[s.ExternalIDKey]),
		MealSlot:   strings.TrimSpace(md[s.MealSlotKey]),
	}
}

// ParseStart parses a start date in StartDateLayout, keeping its offset.
func ParseStart(s string) (time.Time, error) {
	return time.Parse(StartDateLayout, strings.TrimSpace(s))
}

// WallClock drops the offset of t, keeping its local date and clock reading.
// The result is expressed in UTC so that comparisons use the wall clock only.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Entry is a record that passed filtering and parsing.
type Entry struct {
	Position int
	Source   string
	Fields   Fields

	// Start keeps the original offset. Local is the wall clock with the offset stripped.
	Start time.Time
	Local time.Time

	// HasKind is false for record types that carry no nutrient we track.
	HasKind bool
	Kind    NutrientKind
	Value   float64
}
