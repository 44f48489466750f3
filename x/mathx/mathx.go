// Package mathx holds small generic integer helpers shared by the firmware
// packages.
package mathx

import "golang.org/x/exp/constraints"

// Between reports lo <= v && v <= hi.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

// Abs for signed integers.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
