package types

import "fmt"

// UnlimitedSentinel is how "no limit" persists in the database. Application
// code never does arithmetic on it; it is decoded into a Limit first.
const UnlimitedSentinel = -1

// Limit is a plan allowance: either a non-negative count or unlimited.
type Limit struct {
	value     int
	unlimited bool
}

// LimitOf returns a bounded limit of n.
func LimitOf(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{value: n}
}

// Unlimited returns the unbounded limit.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// DecodeLimit converts a stored column value into a Limit.
func DecodeLimit(stored int) Limit {
	if stored == UnlimitedSentinel {
		return Unlimited()
	}
	return LimitOf(stored)
}

// IsUnlimited reports whether the limit is unbounded.
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Value returns the bounded count. It panics for unlimited limits; callers
// must check IsUnlimited first.
func (l Limit) Value() int {
	if l.unlimited {
		panic("types: Value called on unlimited limit")
	}
	return l.value
}

// Allows reports whether usage of n is within the limit.
func (l Limit) Allows(n int) bool {
	return l.unlimited || n <= l.value
}

// Encode returns the database representation of the limit.
func (l Limit) Encode() int {
	if l.unlimited {
		return UnlimitedSentinel
	}
	return l.value
}

// String implements fmt.Stringer.
func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.value)
}
