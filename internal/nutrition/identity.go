package nutrition

import (
	"fmt"
	"time"
)

// KeyKind discriminates the two identity key forms.
type KeyKind uint8

const (
	// KeyStable keys come from a metadata identifier shared by every record of one event.
	KeyStable KeyKind = iota + 1
	// KeyFallback keys are built from food name, meal slot, and a truncated timestamp.
	KeyFallback
)

// IdentityKey names the real-world food event a record belongs to.
// Keys are comparable and usable as map keys; two fallback keys are equal
// iff food name, meal slot, and time bucket all match.
type IdentityKey struct {
	Kind KeyKind

	// ID is set for stable keys.
	ID string

	// FoodName, MealSlot, and Bucket (Unix seconds of the truncated start) are set for fallback keys.
	FoodName string
	MealSlot string
	Bucket   int64
}

// StableKey returns the key for an external identifier.
func StableKey(id string) IdentityKey {
	return IdentityKey{Kind: KeyStable, ID: id}
}

// FallbackKey returns the key for a record without a stable identifier.
// start is truncated to granularity; an empty meal slot becomes UnknownLabel.
func FallbackKey(foodName, mealSlot string, start time.Time, granularity time.Duration) IdentityKey {
	if mealSlot == "" {
		mealSlot = UnknownLabel
	}
	if granularity <= 0 {
		granularity = time.Minute
	}
	return IdentityKey{
		Kind:     KeyFallback,
		FoodName: foodName,
		MealSlot: mealSlot,
		Bucket:   start.Truncate(granularity).Unix(),
	}
}

// IsStable reports whether k was derived from an external identifier.
func (k IdentityKey) IsStable() bool { return k.Kind == KeyStable }

// String renders the key for logs and snapshots.
func (k IdentityKey) String() string {
	if k.Kind == KeyStable {
		return "id:" + k.ID
	}
	return fmt.Sprintf("fallback:%s|%s|%s", k.FoodName, k.MealSlot, time.Unix(k.Bucket, 0).UTC().Format(time.RFC3339))
}

// Resolver derives the identity key of an entry.
// ok is false when no key can be built and the entry must be dropped.
type Resolver interface {
	Resolve(e Entry) (key IdentityKey, ok bool)
}

// TruncatingResolver uses the external identifier when present and otherwise
// falls back to (food name, meal slot, start truncated to Granularity).
//
// The fallback is a heuristic: two genuine ingestions of the same food in the
// same meal slot within one bucket merge into a single event.
type TruncatingResolver struct {
	Granularity time.Duration
}

// DefaultResolver returns a resolver with one-minute fallback buckets.
func DefaultResolver() TruncatingResolver {
	return TruncatingResolver{Granularity: time.Minute}
}

// Resolve implements Resolver.
func (r TruncatingResolver) Resolve(e Entry) (IdentityKey, bool) {
	if e.Fields.ExternalID != "" {
		return StableKey(e.Fields.ExternalID), true
	}
	if e.Fields.FoodName == "" {
		return IdentityKey{}, false
	}
	return FallbackKey(e.Fields.FoodName, e.Fields.MealSlot, e.Start, r.Granularity), true
}
