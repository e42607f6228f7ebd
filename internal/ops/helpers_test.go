package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/mealtrace/internal/nutrition"
)

const (
	typeEnergy  = "HKQuantityTypeIdentifierDietaryEnergyConsumed"
	typeProtein = "HKQuantityTypeIdentifierDietaryProtein"
	typeCarbs   = "HKQuantityTypeIdentifierDietaryCarbohydrates"
	typeSugar   = "HKQuantityTypeIdentifierDietarySugar"
)

// md builds a metadata map from key/value pairs.
func md(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func rawRecord(source, typ, value, start string, meta map[string]string) nutrition.RawRecord {
	return nutrition.RawRecord{Source: source, Type: typ, Value: value, StartDate: start, Metadata: meta}
}

// e2eRecords is the three-record scenario: two stable-id records for one
// Apple event and one fallback Banana record five minutes later.
func e2eRecords() []nutrition.RawRecord {
	return []nutrition.RawRecord{
		rawRecord("YAZIO", typeEnergy, "50", "2023-06-05 08:00:00 +0000",
			md("HKExternalUUID", "A", "HKFoodType", "Apple", "Mahlzeit", "breakfast")),
		rawRecord("YAZIO", typeProtein, "1", "2023-06-05 08:00:00 +0000",
			md("HKExternalUUID", "A")),
		rawRecord("FDDB Extender", typeSugar, "12", "2023-06-05 08:05:00 +0000",
			md("HKFoodType", "Banana", "Mahlzeit", "breakfast")),
	}
}

func loadRecords(t *testing.T, recs []nutrition.RawRecord) *Dataset {
	t.Helper()
	ds, err := Load(t.Context(), NewSliceSource(recs), DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return ds
}

// exportXML renders records as an export.xml document.
func exportXML(recs []nutrition.RawRecord) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<HealthData locale=\"en_US\">\n")
	for _, r := range recs {
		fmt.Fprintf(&b, ` <Record type=%q sourceName=%q value=%q startDate=%q>`+"\n", r.Type, r.Source, r.Value, r.StartDate)
		for k, v := range r.Metadata {
			fmt.Fprintf(&b, `  <MetadataEntry key=%q value=%q/>`+"\n", k, v)
		}
		b.WriteString(" </Record>\n")
	}
	b.WriteString("</HealthData>\n")
	return b.String()
}

func writeExport(t *testing.T, recs []nutrition.RawRecord) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(p, []byte(exportXML(recs)), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

// eventAt builds a food event whose first timestamp is minutes after a fixed base.
func eventAt(name string, minutes int) *nutrition.FoodEvent {
	base := time.Date(2023, 6, 5, 8, 0, 0, 0, time.UTC)
	return &nutrition.FoodEvent{
		Identity:       nutrition.StableKey(fmt.Sprintf("%s-%d", name, minutes)),
		FoodName:       name,
		FirstTimestamp: base.Add(time.Duration(minutes) * time.Minute),
	}
}
