package flow

import (
	"cmp"
	"slices"
)

// Channel is an ordered, finite stream of records.
//
// The zero value is an empty channel. Channels are immutable: combinators
// return new channels and Items returns a copy, so no consumer can disturb
// another's view of the stream.
type Channel[T any] struct {
	items []T
}

// FromSlice builds a channel that emits the given records in the given order.
func FromSlice[T any](items []T) Channel[T] {
	return Channel[T]{items: slices.Clone(items)}
}

// FromSet builds a channel that emits each distinct value exactly once.
//
// The emission order is unspecified by contract but must be stable for a given
// input set, so the values are deduplicated and sorted.
func FromSet[T cmp.Ordered](items []T) Channel[T] {
	out := slices.Clone(items)
	slices.Sort(out)
	out = slices.Compact(out)
	return Channel[T]{items: out}
}

// Items returns a copy of the channel's records in emission order.
func (c Channel[T]) Items() []T {
	return slices.Clone(c.items)
}

// Len returns the number of records in the channel.
func (c Channel[T]) Len() int {
	return len(c.items)
}

// Map applies fn to every record, one output record per input record.
func Map[T, U any](c Channel[T], fn func(T) U) Channel[U] {
	out := make([]U, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, fn(item))
	}
	return Channel[U]{items: out}
}

// Filter retains the records for which keep returns true, preserving order.
func Filter[T any](c Channel[T], keep func(T) bool) Channel[T] {
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return Channel[T]{items: out}
}

// Concat appends b's records after a's, preserving each side's internal order.
func Concat[T any](a, b Channel[T]) Channel[T] {
	out := make([]T, 0, len(a.items)+len(b.items))
	out = append(out, a.items...)
	out = append(out, b.items...)
	return Channel[T]{items: out}
}
