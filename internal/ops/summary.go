package ops

import (
	"cmp"
	"slices"
	"time"

	"github.com/hpungsan/mealtrace/internal/nutrition"
)

// FoodCount is how often a food occurred in a bucket.
type FoodCount struct {
	Food  string `json:"food"`
	Count int    `json:"count"`
}

// SlotFoods lists the foods of one meal slot, most frequent first.
type SlotFoods struct {
	Slot  string      `json:"slot"`
	Foods []FoodCount `json:"foods"`
}

// WeekSlots is one ISO week of the weekly-by-slot report.
type WeekSlots struct {
	Week  nutrition.Week `json:"week"`
	Slots []SlotFoods    `json:"slots"`
}

// WeekFoodRow is one row of the flat weekly-by-food report.
type WeekFoodRow struct {
	Year   int     `json:"year"`
	Week   int     `json:"week"`
	Food   string  `json:"food"`
	Count  int     `json:"count"`
	Energy float64 `json:"energy_kcal"`
}

// MealSummary describes one segmented meal.
type MealSummary struct {
	Seq    int                 `json:"seq"`
	Date   string              `json:"date"`
	Time   string              `json:"time"`
	Start  time.Time           `json:"start"`
	Foods  []string            `json:"foods"`
	Totals nutrition.Nutrients `json:"totals"`
}

// counter tallies keys while remembering first-seen order.
type counter[K comparable] struct {
	order []K
	n     map[K]int
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{n: make(map[K]int)}
}

func (c *counter[K]) inc(k K) {
	if _, ok := c.n[k]; !ok {
		c.order = append(c.order, k)
	}
	c.n[k]++
}

// WeeklyBySlot groups events by ISO week, then by meal slot, and counts each
// food. Weeks ascend; slots keep first-seen order within a week; foods are
// sorted by descending count with ties in first-seen order.
func WeeklyBySlot(events []*nutrition.FoodEvent) []WeekSlots {
	type slotKey struct {
		week nutrition.Week
		slot string
	}

	slotsByWeek := make(map[nutrition.Week][]string)
	var weeks []nutrition.Week
	foods := make(map[slotKey]*counter[string])

	for _, ev := range events {
		k := slotKey{week: ev.Week(), slot: ev.SlotLabel()}
		c, ok := foods[k]
		if !ok {
			if _, seen := slotsByWeek[k.week]; !seen {
				weeks = append(weeks, k.week)
			}
			slotsByWeek[k.week] = append(slotsByWeek[k.week], k.slot)
			c = newCounter[string]()
			foods[k] = c
		}
		c.inc(ev.DisplayName())
	}

	slices.SortFunc(weeks, compareWeeks)

	out := make([]WeekSlots, 0, len(weeks))
	for _, w := range weeks {
		ws := WeekSlots{Week: w}
		for _, slot := range slotsByWeek[w] {
			c := foods[slotKey{week: w, slot: slot}]
			counts := make([]FoodCount, len(c.order))
			for i, name := range c.order {
				counts[i] = FoodCount{Food: name, Count: c.n[name]}
			}
			slices.SortStableFunc(counts, func(a, b FoodCount) int {
				return cmp.Compare(b.Count, a.Count)
			})
			ws.Slots = append(ws.Slots, SlotFoods{Slot: slot, Foods: counts})
		}
		out = append(out, ws)
	}
	return out
}

// WeeklyByFood counts events and sums their energy per (ISO week, food).
// Rows are sorted by year, week, then food name.
func WeeklyByFood(events []*nutrition.FoodEvent) []WeekFoodRow {
	type rowKey struct {
		week nutrition.Week
		food string
	}

	index := make(map[rowKey]int)
	var rows []WeekFoodRow
	for _, ev := range events {
		k := rowKey{week: ev.Week(), food: ev.DisplayName()}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, WeekFoodRow{Year: k.week.Year, Week: k.week.Week, Food: k.food})
		}
		rows[i].Count++
		rows[i].Energy += ev.Nutrients.Get(nutrition.Energy)
	}

	slices.SortStableFunc(rows, func(a, b WeekFoodRow) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Week, b.Week),
			cmp.Compare(a.Food, b.Food),
		)
	})
	return rows
}

// MealSummaries numbers meals from 1 and totals their nutrients.
func MealSummaries(meals []nutrition.Meal) []MealSummary {
	out := make([]MealSummary, len(meals))
	for i, m := range meals {
		start := m.Start()
		out[i] = MealSummary{
			Seq:    i + 1,
			Date:   start.Format(DateLayout),
			Time:   start.Format("15:04"),
			Start:  start,
			Foods:  m.FoodNames(),
			Totals: m.Totals(),
		}
	}
	return out
}

func compareWeeks(a, b nutrition.Week) int {
	return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Week, b.Week))
}
