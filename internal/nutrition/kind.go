package nutrition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NutrientKind identifies one of the nutrient quantities a record can report.
type NutrientKind int

const (
	Energy NutrientKind = iota
	Protein
	Carbohydrate
	Fat
	Water

	kindCount
)

// Kinds lists every nutrient kind in reporting order.
var Kinds = [kindCount]NutrientKind{Energy, Protein, Carbohydrate, Fat, Water}

var kindNames = [kindCount]string{"energy", "protein", "carbohydrate", "fat", "water"}

// String returns the lowercase kind name ("energy", "protein", ...).
func (k NutrientKind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind parses a kind name. Matching is case-insensitive.
func ParseKind(s string) (NutrientKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return NutrientKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown nutrient kind %q", s)
}

// DefaultRecordTypes maps the HealthKit dietary quantity identifiers to nutrient kinds.
var DefaultRecordTypes = map[string]NutrientKind{
	"HKQuantityTypeIdentifierDietaryEnergyConsumed": Energy,
	"HKQuantityTypeIdentifierDietaryProtein":        Protein,
	"HKQuantityTypeIdentifierDietaryCarbohydrates":  Carbohydrate,
	"HKQuantityTypeIdentifierDietaryFatTotal":       Fat,
	"HKQuantityTypeIdentifierDietaryWater":          Water,
}

// DefaultOutputFields are the CSV column names per kind.
var DefaultOutputFields = [kindCount]string{"calories_kcal", "protein_g", "carbs_g", "fat_g", "water_ml"}

// RecordTypes builds a record-type lookup from the defaults plus overrides
// given as type -> kind name.
func RecordTypes(overrides map[string]string) (map[string]NutrientKind, error) {
	types := make(map[string]NutrientKind, len(DefaultRecordTypes)+len(overrides))
	for t, k := range DefaultRecordTypes {
		types[t] = k
	}
	for t, name := range overrides {
		k, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("record type %s: %w", t, err)
		}
		types[t] = k
	}
	return types, nil
}

// OutputFields holds the column name for each nutrient kind.
type OutputFields [kindCount]string

// NewOutputFields applies kind-name -> column overrides on top of the defaults.
func NewOutputFields(overrides map[string]string) (OutputFields, error) {
	fields := OutputFields(DefaultOutputFields)
	for name, col := range overrides {
		k, err := ParseKind(name)
		if err != nil {
			return fields, fmt.Errorf("output field: %w", err)
		}
		if col = strings.TrimSpace(col); col != "" {
			fields[k] = col
		}
	}
	return fields, nil
}

// Nutrients accumulates one total per nutrient kind.
type Nutrients [kindCount]float64

// Add adds v to the accumulator for kind k.
func (n *Nutrients) Add(k NutrientKind, v float64) {
	n[k] += v
}

// Get returns the accumulated total for kind k.
func (n Nutrients) Get(k NutrientKind) float64 {
	return n[k]
}

// Plus returns the element-wise sum of n and o.
func (n Nutrients) Plus(o Nutrients) Nutrients {
	for i := range n {
		n[i] += o[i]
	}
	return n
}

// MarshalJSON writes the totals as an object keyed by kind name, in kind order.
func (n Nutrients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range Kinds {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k.String())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(n[k], 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by kind name. Unknown keys are ignored.
func (n *Nutrients) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = Nutrients{}
	for name, v := range m {
		if k, err := ParseKind(name); err == nil {
			n[k] = v
		}
	}
	return nil
}
