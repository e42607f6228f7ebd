package ops

import "github.com/hpungsan/mealtrace/internal/nutrition"

// Aggregator folds entries into one FoodEvent per identity key.
// It is not safe for concurrent use.
type Aggregator struct {
	resolver nutrition.Resolver
	index    map[nutrition.IdentityKey]*nutrition.FoodEvent
	events   []*nutrition.FoodEvent
}

// NewAggregator returns an empty aggregator keyed by r.
func NewAggregator(r nutrition.Resolver) *Aggregator {
	if r == nil {
		r = nutrition.DefaultResolver()
	}
	return &Aggregator{
		resolver: r,
		index:    make(map[nutrition.IdentityKey]*nutrition.FoodEvent),
	}
}

// Add folds e into its event. It returns false if no identity key could be
// derived and the entry was dropped.
func (a *Aggregator) Add(e nutrition.Entry) bool {
	key, ok := a.resolver.Resolve(e)
	if !ok {
		return false
	}
	ev, found := a.index[key]
	if !found {
		ev = nutrition.NewFoodEvent(key, e)
		a.index[key] = ev
		a.events = append(a.events, ev)
	}
	ev.Observe(e)
	return true
}

// Events returns the events in the order their keys were first seen.
func (a *Aggregator) Events() []*nutrition.FoodEvent {
	return a.events
}

// Len returns the number of distinct events.
func (a *Aggregator) Len() int {
	return len(a.events)
}
