package ops

import (
	"slices"
	"time"

	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// SortByTime returns a copy of events ordered by FirstTimestamp. Ties keep
// their input order.
func SortByTime(events []*nutrition.FoodEvent) []*nutrition.FoodEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b *nutrition.FoodEvent) int {
		return a.FirstTimestamp.Compare(b.FirstTimestamp)
	})
	return sorted
}

// SegmentMeals partitions events into meals. Events are ordered by time first;
// an event joins the open meal when it starts at most gap after the meal's
// last event, otherwise it opens a new meal.
func SegmentMeals(events []*nutrition.FoodEvent, gap time.Duration) []nutrition.Meal {
	var meals []nutrition.Meal
	var current []*nutrition.FoodEvent

	for _, ev := range SortByTime(events) {
		if len(current) > 0 && ev.FirstTimestamp.Sub(current[len(current)-1].FirstTimestamp) > gap {
			meals = append(meals, nutrition.Meal{Events: current})
			current = nil
		}
		current = append(current, ev)
	}
	if len(current) > 0 {
		meals = append(meals, nutrition.Meal{Events: current})
	}
	return meals
}
