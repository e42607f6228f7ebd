package ops

import (
	"testing"
	"time"

	"github.com/hpungsan/mealtrace/internal/nutrition"
)

func TestFoodEvents_DedupInvariant(t *testing.T) {
	recs := []nutrition.RawRecord{
		rawRecord("YAZIO", typeEnergy, "100", "2023-06-05 12:00:00 +0000", md("HKExternalUUID", "X", "HKFoodType", "Pasta")),
		rawRecord("YAZIO", typeProtein, "4", "2023-06-05 12:00:00 +0000", md("HKExternalUUID", "X", "HKFoodType", "Pasta")),
		rawRecord("YAZIO", typeCarbs, "20.5", "2023-06-05 12:00:00 +0000", md("HKExternalUUID", "X", "HKFoodType", "Pasta")),
		rawRecord("YAZIO", typeEnergy, "25", "2023-06-05 12:00:00 +0000", md("HKExternalUUID", "X", "HKFoodType", "Pasta")),
	}
	events := loadRecords(t, recs).FoodEvents(DateRange{})

	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	n := events[0].Nutrients
	if n.Get(nutrition.Energy) != 125 || n.Get(nutrition.Protein) != 4 || n.Get(nutrition.Carbohydrate) != 20.5 {
		t.Errorf("Nutrients = %v", n)
	}
	if events[0].Records != 4 {
		t.Errorf("Records = %d, want 4", events[0].Records)
	}
}

func TestFoodEvents_FirstNameWinsAndTimestampFixed(t *testing.T) {
	recs := []nutrition.RawRecord{
		rawRecord("YAZIO", typeProtein, "1", "2023-06-05 08:00:00 +0000", md("HKExternalUUID", "A")),
		rawRecord("YAZIO", typeEnergy, "50", "2023-06-05 07:00:00 +0000", md("HKExternalUUID", "A", "HKFoodType", "Apple")),
		rawRecord("YAZIO", typeEnergy, "5", "2023-06-05 09:00:00 +0000", md("HKExternalUUID", "A", "HKFoodType", "Pear")),
	}
	events := loadRecords(t, recs).FoodEvents(DateRange{})

	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.FoodName != "Apple" {
		t.Errorf("FoodName = %q, want Apple", ev.FoodName)
	}
	if want := time.Date(2023, 6, 5, 8, 0, 0, 0, time.UTC); !ev.FirstTimestamp.Equal(want) {
		t.Errorf("FirstTimestamp = %v, want %v", ev.FirstTimestamp, want)
	}
}

func TestFoodEvents_FallbackCollapse(t *testing.T) {
	recs := []nutrition.RawRecord{
		rawRecord("FDDB", typeEnergy, "90", "2023-06-05 08:05:10 +0000", md("HKFoodType", "Banana", "Mahlzeit", "breakfast")),
		rawRecord("FDDB", typeCarbs, "20", "2023-06-05 08:05:50 +0000", md("HKFoodType", "Banana", "Mahlzeit", "breakfast")),
		rawRecord("FDDB", typeEnergy, "90", "2023-06-05 08:06:00 +0000", md("HKFoodType", "Banana", "Mahlzeit", "breakfast")),
		rawRecord("FDDB", typeEnergy, "90", "2023-06-05 08:05:10 +0000", md("HKFoodType", "Banana", "Mahlzeit", "lunch")),
		rawRecord("FDDB", typeEnergy, "90", "2023-06-05 08:05:10 +0000", md("HKFoodType", "Banana")),
	}
	events := loadRecords(t, recs).FoodEvents(DateRange{})

	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}
	if events[0].Nutrients.Get(nutrition.Carbohydrate) != 20 || events[0].Records != 2 {
		t.Errorf("collapsed event = %+v", events[0])
	}
	if events[3].SlotLabel() != nutrition.UnknownLabel {
		t.Errorf("slot = %q, want UNKNOWN", events[3].SlotLabel())
	}
}

func TestFoodEvents_DateRange(t *testing.T) {
	recs := []nutrition.RawRecord{
		rawRecord("YAZIO", typeEnergy, "1", "2023-06-04 23:59:59 +0000", md("HKFoodType", "A")),
		rawRecord("YAZIO", typeEnergy, "1", "2023-06-05 00:00:00 +0000", md("HKFoodType", "B")),
		rawRecord("YAZIO", typeEnergy, "1", "2023-06-06 23:59:59 +0000", md("HKFoodType", "C")),
		rawRecord("YAZIO", typeEnergy, "1", "2023-06-07 00:00:00 +0000", md("HKFoodType", "D")),
		// 01:00 at +0200 is 23:00 UTC the day before; the wall clock decides.
		rawRecord("YAZIO", typeEnergy, "1", "2023-06-05 01:00:00 +0200", md("HKFoodType", "E")),
	}
	ds := loadRecords(t, recs)

	rng, err := ParseDateRange("2023-06-05", "2023-06-06")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, ev := range ds.FoodEvents(rng) {
		names = append(names, ev.FoodName)
	}
	want := []string{"B", "C", "E"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  bool
		str      string
	}{
		{"open", "", "", false, ".."},
		{"from only", "2023-06-05", "", false, "2023-06-05.."},
		{"both", "2023-06-05", "2023-06-05", false, "2023-06-05..2023-06-05"},
		{"bad from", "06/05/2023", "", true, ""},
		{"bad to", "", "2023-13-01", true, ""},
		{"reversed", "2023-06-06", "2023-06-05", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && r.String() != tt.str {
				t.Errorf("String() = %q, want %q", r.String(), tt.str)
			}
		})
	}
}

func TestSegmentMeals_GapRule(t *testing.T) {
	events := []*nutrition.FoodEvent{
		eventAt("a", 0), eventAt("b", 10), eventAt("c", 45), eventAt("d", 50), eventAt("e", 120),
	}
	meals := SegmentMeals(events, 30*time.Minute)

	want := [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	if len(meals) != len(want) {
		t.Fatalf("len(meals) = %d, want %d", len(meals), len(want))
	}
	for i, m := range meals {
		got := m.FoodNames()
		if len(got) != len(want[i]) {
			t.Errorf("meal %d = %v, want %v", i, got, want[i])
			continue
		}
		for j := range got {
			if got[j] != want[i][j] {
				t.Errorf("meal %d = %v, want %v", i, got, want[i])
			}
		}
	}
}

func TestSegmentMeals_EdgeCases(t *testing.T) {
	if got := SegmentMeals(nil, 30*time.Minute); len(got) != 0 {
		t.Errorf("empty input: %d meals, want 0", len(got))
	}

	single := SegmentMeals([]*nutrition.FoodEvent{eventAt("a", 0)}, 30*time.Minute)
	if len(single) != 1 || len(single[0].Events) != 1 {
		t.Errorf("single input: %+v", single)
	}

	// Exactly the threshold stays in the meal.
	edge := SegmentMeals([]*nutrition.FoodEvent{eventAt("a", 0), eventAt("b", 30)}, 30*time.Minute)
	if len(edge) != 1 {
		t.Errorf("gap == threshold: %d meals, want 1", len(edge))
	}

	// Chained short gaps can span more than the threshold.
	chain := SegmentMeals([]*nutrition.FoodEvent{
		eventAt("a", 0), eventAt("b", 25), eventAt("c", 50), eventAt("d", 75),
	}, 30*time.Minute)
	if len(chain) != 1 || chain[0].End().Sub(chain[0].Start()) != 75*time.Minute {
		t.Errorf("chain: %d meals", len(chain))
	}
}

func TestSegmentMeals_SortsAndKeepsTieOrder(t *testing.T) {
	events := []*nutrition.FoodEvent{
		eventAt("late", 200), eventAt("x", 0), eventAt("y", 0), eventAt("z", 5),
	}
	meals := SegmentMeals(events, 30*time.Minute)
	if len(meals) != 2 {
		t.Fatalf("len(meals) = %d, want 2", len(meals))
	}
	names := meals[0].FoodNames()
	if names[0] != "x" || names[1] != "y" || names[2] != "z" {
		t.Errorf("first meal = %v, want [x y z]", names)
	}
	if events[0].FoodName != "late" {
		t.Error("SegmentMeals must not reorder its input")
	}
}

func TestWeeklyBySlot_OrderAndTieBreak(t *testing.T) {
	mk := func(name, slot string, day int) *nutrition.FoodEvent {
		return &nutrition.FoodEvent{
			FoodName:       name,
			MealSlot:       slot,
			FirstTimestamp: time.Date(2023, 1, day, 8, 0, 0, 0, time.UTC),
		}
	}
	events := []*nutrition.FoodEvent{
		mk("Tea", "breakfast", 9),   // 2023-W02
		mk("Bread", "breakfast", 2), // 2023-W01
		mk("Jam", "breakfast", 2),
		mk("Jam", "breakfast", 3),
		mk("Soup", "lunch", 3),
		mk("Bread", "breakfast", 4),
		mk("Egg", "breakfast", 4),
		mk("Cake", "", 1), // Sunday, 2022-W52
	}

	weeks := WeeklyBySlot(events)
	if len(weeks) != 3 {
		t.Fatalf("len(weeks) = %d, want 3", len(weeks))
	}
	if weeks[0].Week != (nutrition.Week{Year: 2022, Week: 52}) || weeks[2].Week != (nutrition.Week{Year: 2023, Week: 2}) {
		t.Errorf("weeks not ascending: %v %v %v", weeks[0].Week, weeks[1].Week, weeks[2].Week)
	}
	if weeks[0].Slots[0].Slot != nutrition.UnknownLabel {
		t.Errorf("empty slot label = %q", weeks[0].Slots[0].Slot)
	}

	w1 := weeks[1]
	if len(w1.Slots) != 2 || w1.Slots[0].Slot != "breakfast" || w1.Slots[1].Slot != "lunch" {
		t.Fatalf("slots = %+v", w1.Slots)
	}
	got := w1.Slots[0].Foods
	want := []FoodCount{{"Bread", 2}, {"Jam", 2}, {"Egg", 1}}
	if len(got) != len(want) {
		t.Fatalf("foods = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("foods = %+v, want %+v", got, want)
			break
		}
	}
}

func TestWeeklyByFood(t *testing.T) {
	mk := func(name string, day int, kcal float64) *nutrition.FoodEvent {
		ev := &nutrition.FoodEvent{FoodName: name, FirstTimestamp: time.Date(2023, 1, day, 8, 0, 0, 0, time.UTC)}
		ev.Nutrients.Add(nutrition.Energy, kcal)
		return ev
	}
	events := []*nutrition.FoodEvent{
		mk("Tea", 9, 2),
		mk("Bread", 2, 200),
		mk("Apple", 3, 50),
		mk("Bread", 4, 180),
		mk("", 4, 10),
		mk("Bread", 1, 100),
	}

	rows := WeeklyByFood(events)
	want := []WeekFoodRow{
		{Year: 2022, Week: 52, Food: "Bread", Count: 1, Energy: 100},
		{Year: 2023, Week: 1, Food: "Apple", Count: 1, Energy: 50},
		{Year: 2023, Week: 1, Food: "Bread", Count: 2, Energy: 380},
		{Year: 2023, Week: 1, Food: "UNKNOWN", Count: 1, Energy: 10},
		{Year: 2023, Week: 2, Food: "Tea", Count: 1, Energy: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestMealSummaries(t *testing.T) {
	a := eventAt("a", 0)
	a.Nutrients.Add(nutrition.Energy, 100)
	b := eventAt("b", 10)
	b.Nutrients.Add(nutrition.Energy, 50)
	b.Nutrients.Add(nutrition.Fat, 1.5)
	c := eventAt("c", 24*60)

	sums := MealSummaries(SegmentMeals([]*nutrition.FoodEvent{a, b, c}, 30*time.Minute))
	if len(sums) != 2 {
		t.Fatalf("len = %d, want 2", len(sums))
	}
	if sums[0].Seq != 1 || sums[0].Date != "2023-06-05" || sums[0].Time != "08:00" {
		t.Errorf("first = %+v", sums[0])
	}
	if sums[0].Totals.Get(nutrition.Energy) != 150 || sums[0].Totals.Get(nutrition.Fat) != 1.5 {
		t.Errorf("totals = %v", sums[0].Totals)
	}
	if sums[1].Seq != 2 || sums[1].Date != "2023-06-06" {
		t.Errorf("second = %+v", sums[1])
	}
}
