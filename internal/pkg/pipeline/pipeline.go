// Package pipeline holds small typed helpers for straight-line list
// processing in the resolvers.
package pipeline

import (
	"cmp"
	"slices"
)

// Filter keeps the elements for which keep returns true.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Map applies fn to every element.
func Map[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// SortBy returns a stably sorted copy ordered by key.
func SortBy[T any, K cmp.Ordered](in []T, key func(T) K) []T {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
	return out
}

// DedupeFirst keeps the first element seen for each key, preserving order.
func DedupeFirst[T any, K comparable](in []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Take returns at most n leading elements.
func Take[T any](in []T, n int) []T {
	if n < 0 || len(in) <= n {
		return in
	}
	return in[:n]
}
