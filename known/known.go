// Package known provides a small optional-like wrapper for integers whose
// exact value an analysis may have failed to determine.
package known

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// Value is either a concrete integer or the explicit unknown marker.
// The zero Value is unknown.
type Value[T constraints.Integer] struct {
	v     T
	known bool
}

// Of returns a known Value holding v.
func Of[T constraints.Integer](v T) Value[T] {
	return Value[T]{v: v, known: true}
}

// Unknown returns the unknown Value.
func Unknown[T constraints.Integer]() Value[T] {
	return Value[T]{}
}

func (x Value[T]) IsUnknown() bool { return !x.known }

func (x Value[T]) Get() (T, bool) { return x.v, x.known }

func (x Value[T]) Add(y Value[T]) Value[T] {
	if !x.known || !y.known {
		return Value[T]{}
	}
	return Of(x.v + y.v)
}

func (x Value[T]) Sub(y Value[T]) Value[T] {
	if !x.known || !y.known {
		return Value[T]{}
	}
	return Of(x.v - y.v)
}

// String renders the value, or "?" if it is unknown.
func (x Value[T]) String() string {
	if !x.known {
		return "?"
	}
	if isSigned[T]() {
		return strconv.FormatInt(int64(x.v), 10)
	}
	return strconv.FormatUint(uint64(x.v), 10)
}

func isSigned[T constraints.Integer]() bool {
	var zero T
	return zero-1 < zero
}

// Interval returns the closed byte interval [offset, offset+length-1].
// An unknown offset makes both bounds unknown, an unknown length only the
// upper one.
func Interval[T constraints.Integer](offset, length Value[T]) (lo, hi Value[T]) {
	return offset, offset.Add(length).Sub(Of[T](1))
}

// FormatInterval renders Interval(offset, length) as "lo - hi".
func FormatInterval[T constraints.Integer](offset, length Value[T]) string {
	lo, hi := Interval(offset, length)
	return lo.String() + " - " + hi.String()
}
