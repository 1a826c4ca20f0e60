package common

import (
	"cmp"
	"math"
)

// / Returns the square of the value.
// / @param[in]		a	The value.
// / @return The square of the value.
func Sqr[T IT](a T) T {
	return a * a
}

// / Square root on float32.
func Sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Returns -1, 0 or 1 depending on the sign of @p a.
func Sign[T ST](a T) T {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	}
	return 0
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

func Exp32(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
