package nutrition

import "time"

// FoodEvent is one real-world ingestion reconstructed from every record that
// shares its identity key.
type FoodEvent struct {
	Identity IdentityKey

	// FoodName and MealSlot hold the first non-empty value seen; empty means unknown.
	FoodName string
	MealSlot string
	Source   string

	// FirstTimestamp is the wall clock (offset stripped) of the first record seen.
	FirstTimestamp time.Time

	Nutrients Nutrients

	// Records counts contributing records.
	Records int
}

// NewFoodEvent creates the event for the first entry seen with key.
func NewFoodEvent(key IdentityKey, e Entry) *FoodEvent {
	return &FoodEvent{
		Identity:       key,
		FoodName:       e.Fields.FoodName,
		MealSlot:       e.Fields.MealSlot,
		Source:         e.Source,
		FirstTimestamp: e.Local,
	}
}

// Observe folds one more entry into the event. FirstTimestamp never changes;
// name and slot are filled only while still unknown.
func (f *FoodEvent) Observe(e Entry) {
	f.Records++
	if f.FoodName == "" && e.Fields.FoodName != "" {
		f.FoodName = e.Fields.FoodName
	}
	if f.MealSlot == "" && e.Fields.MealSlot != "" {
		f.MealSlot = e.Fields.MealSlot
	}
	if e.HasKind {
		f.Nutrients.Add(e.Kind, e.Value)
	}
}

// DisplayName returns the food name or UnknownLabel.
func (f *FoodEvent) DisplayName() string {
	if f.FoodName == "" {
		return UnknownLabel
	}
	return f.FoodName
}

// SlotLabel returns the meal slot or UnknownLabel.
func (f *FoodEvent) SlotLabel() string {
	if f.MealSlot == "" {
		return UnknownLabel
	}
	return f.MealSlot
}

// Week returns the ISO week of the event's local timestamp.
func (f *FoodEvent) Week() Week {
	return WeekOf(f.FirstTimestamp)
}

// Meal is a non-empty, time-ordered run of food events.
type Meal struct {
	Events []*FoodEvent
}

// Start returns the timestamp of the first event.
func (m Meal) Start() time.Time {
	return m.Events[0].FirstTimestamp
}

// End returns the timestamp of the last event.
func (m Meal) End() time.Time {
	return m.Events[len(m.Events)-1].FirstTimestamp
}

// Totals sums nutrients across the meal's events.
func (m Meal) Totals() Nutrients {
	var total Nutrients
	for _, e := range m.Events {
		total = total.Plus(e.Nutrients)
	}
	return total
}

// FoodNames lists the display names of the events in time order.
func (m Meal) FoodNames() []string {
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.DisplayName()
	}
	return names
}
