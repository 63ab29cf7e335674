package common

import "math"

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Abs returns the absolute value of an int.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Chebyshev returns the king-move distance between two tiles.
func Chebyshev(x1, y1, x2, y2 int) int {
	dx := Abs(x1 - x2)
	dy := Abs(y1 - y2)
	if dx > dy {
		return dx
	}
	return dy
}

// FloorInt floors v and converts it to int.
func FloorInt(v float64) int {
	return int(math.Floor(v))
}
