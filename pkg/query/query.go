// Package query holds the in-memory filter, sort and page primitives used by
// list endpoints whose rows are derived rather than read straight from SQL.
package query

import (
	"slices"
	"strings"
	"time"
)

// Predicate selects items.
type Predicate[T any] func(T) bool

// Comparator orders items; negative means a sorts before b.
type Comparator[T any] func(a, b T) int

// All matches every item.
func All[T any]() Predicate[T] {
	return func(T) bool { return true }
}

func And[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches; with no predicates it matches nothing.
func Or[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range preds {
			if p != nil && p(item) {
				return true
			}
		}
		return false
	}
}

func Not[T any](p Predicate[T]) Predicate[T] {
	return func(item T) bool { return !p(item) }
}

// Search matches items where any field contains term, ignoring case and
// surrounding whitespace. A blank term matches everything.
func Search[T any](term string, fields ...func(T) string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return All[T]()
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), needle) {
				return true
			}
		}
		return false
	}
}

// Equals matches when get(item) == want.
func Equals[T any, V comparable](get func(T) V, want V) Predicate[T] {
	return func(item T) bool { return get(item) == want }
}

// EqualsIfSet is Equals when want is non-nil and All otherwise.
func EqualsIfSet[T any, V comparable](get func(T) V, want *V) Predicate[T] {
	if want == nil {
		return All[T]()
	}
	return Equals(get, *want)
}

// Within matches items whose date falls in [now, now+window]. Items with a
// nil date never match. now is supplied per call and never cached.
func Within[T any](now time.Time, window time.Duration, get func(T) *time.Time) Predicate[T] {
	limit := now.Add(window)
	return func(item T) bool {
		d := get(item)
		if d == nil {
			return false
		}
		return !d.Before(now) && !d.After(limit)
	}
}

// By builds a comparator from an ordered key.
func By[T any, K interface{ ~int | ~int64 | ~float64 | ~string }](key func(T) K) Comparator[T] {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		default:
			return 0
		}
	}
}

// ByTime orders by a timestamp key, earliest first.
func ByTime[T any](key func(T) time.Time) Comparator[T] {
	return func(a, b T) int { return key(a).Compare(key(b)) }
}

// FoldString orders case-insensitively.
func FoldString[T any](key func(T) string) Comparator[T] {
	return By(func(t T) string { return strings.ToLower(key(t)) })
}

// Then breaks ties in c with next.
func (c Comparator[T]) Then(next Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		if r := c(a, b); r != 0 {
			return r
		}
		return next(a, b)
	}
}

// Reverse flips the order.
func (c Comparator[T]) Reverse() Comparator[T] {
	return func(a, b T) int { return c(b, a) }
}

// Collection composes a filter and an order and applies them to inputs.
type Collection[T any] struct {
	filter Predicate[T]
	order  Comparator[T]
}

func New[T any]() Collection[T] {
	return Collection[T]{}
}

func (c Collection[T]) Filter(p Predicate[T]) Collection[T] {
	if c.filter == nil {
		c.filter = p
	} else {
		c.filter = And(c.filter, p)
	}
	return c
}

func (c Collection[T]) Sort(order Comparator[T]) Collection[T] {
	c.order = order
	return c
}

// Apply returns a new slice; items is never modified.
func (c Collection[T]) Apply(items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if c.filter == nil || c.filter(item) {
			out = append(out, item)
		}
	}
	if c.order != nil {
		slices.SortStableFunc(out, c.order)
	}
	return out
}

// Page slices items by offset and limit, clamping both to the input.
func Page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
