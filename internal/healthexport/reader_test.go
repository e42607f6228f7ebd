package healthexport

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	merrors "github.com/hpungsan/mealtrace/internal/errors"
	"github.com/hpungsan/mealtrace/internal/nutrition"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE HealthData [
<!ELEMENT HealthData (ExportDate,Me,(Record|Correlation)*)>
]>
<HealthData locale="de_DE">
 <ExportDate value="2023-06-10 10:00:00 +0200"/>
 <Me HKCharacteristicTypeIdentifierBiologicalSex="HKBiologicalSexNotSet"/>
 <Record type="HKQuantityTypeIdentifierDietaryEnergyConsumed" sourceName="YAZIO" unit="kcal" startDate="2023-06-05 08:00:00 +0200" endDate="2023-06-05 08:00:00 +0200" value="50">
  <MetadataEntry key="HKFoodType" value="Apple"/>
  <MetadataEntry key="HKExternalUUID" value="A"/>
 </Record>
 <Correlation type="HKCorrelationTypeIdentifierFood" sourceName="FDDB Extender" startDate="2023-06-05 08:05:00 +0200" endDate="2023-06-05 08:05:00 +0200">
  <MetadataEntry key="HKFoodType" value="Banana"/>
  <Record type="HKQuantityTypeIdentifierDietaryProtein" sourceName="FDDB Extender" unit="g" startDate="2023-06-05 08:05:00 +0200" endDate="2023-06-05 08:05:00 +0200" value="1.2">
   <MetadataEntry key="HKFoodType" value="Banana"/>
  </Record>
 </Correlation>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="iPhone" unit="count" startDate="2023-06-05 09:00:00 +0200" endDate="2023-06-05 09:10:00 +0200" value="800"/>
</HealthData>
`

func readAll(t *testing.T, r *Reader) []nutrition.RawRecord {
	t.Helper()
	var out []nutrition.RawRecord
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, rec)
	}
}

func TestReader_Records(t *testing.T) {
	recs := readAll(t, NewReader(strings.NewReader(sampleExport)))
	if len(recs) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(recs))
	}

	first := recs[0]
	if first.Position != 1 || first.Source != "YAZIO" || first.Value != "50" {
		t.Errorf("first = %+v", first)
	}
	if first.StartDate != "2023-06-05 08:00:00 +0200" {
		t.Errorf("StartDate = %q", first.StartDate)
	}
	if first.Metadata["HKFoodType"] != "Apple" || first.Metadata["HKExternalUUID"] != "A" {
		t.Errorf("Metadata = %v", first.Metadata)
	}

	nested := recs[1]
	if nested.Position != 2 || nested.Type != "HKQuantityTypeIdentifierDietaryProtein" {
		t.Errorf("nested = %+v", nested)
	}
	if nested.Metadata["HKFoodType"] != "Banana" {
		t.Errorf("nested metadata = %v", nested.Metadata)
	}

	if recs[2].Position != 3 || recs[2].Metadata != nil {
		t.Errorf("third = %+v", recs[2])
	}
}

func TestReader_EOFIsSticky(t *testing.T) {
	r := NewReader(strings.NewReader(`<HealthData></HealthData>`))
	for i := 0; i < 2; i++ {
		if _, err := r.Next(); err != io.EOF {
			t.Fatalf("Next() #%d error = %v, want io.EOF", i, err)
		}
	}
}

func TestReader_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unclosed", `<HealthData><Record type="x" value="1">`},
		{"mismatched", `<HealthData><Record type="x"></Other></HealthData>`},
		{"garbage", `<HealthData><<</HealthData>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.doc))
			var err error
			for err == nil {
				_, err = r.Next()
			}
			if !merrors.Is(err, merrors.ErrMalformedExport) {
				t.Errorf("error = %v, want MALFORMED_EXPORT", err)
			}
		})
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xml"))
	if !merrors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("Open() error = %v, want NOT_FOUND", err)
	}
}

func TestOpen_XMLFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(p, []byte(sampleExport), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if got := len(readAll(t, r)); got != 3 {
		t.Errorf("records = %d, want 3", got)
	}
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpen_Zip(t *testing.T) {
	p := writeZip(t, map[string]string{
		"apple_health_export/export_cda.xml": "<ClinicalDocument/>",
		"apple_health_export/export.xml":     sampleExport,
	})
	r, err := Open(p)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	recs := readAll(t, r)
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("records = %d, want 3", len(recs))
	}
}

func TestOpen_ZipWithoutExport(t *testing.T) {
	p := writeZip(t, map[string]string{"readme.txt": "hi"})
	_, err := Open(p)
	if !merrors.Is(err, merrors.ErrMalformedExport) {
		t.Fatalf("Open() error = %v, want MALFORMED_EXPORT", err)
	}
}
