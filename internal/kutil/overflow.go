// Package kutil holds small arithmetic helpers shared across the kernel
// packages.
package kutil

// CheckAdditionOverflow reports whether a+b, having produced sum,
// overflowed a signed integer of type T. Used by nucleus.ChargeCurrent's
// CPU-time accounting (accumulated time + elapsed-since-dispatch) and by
// support.Delay's (SYS18) wake-time arithmetic.
func CheckAdditionOverflow[T int64 | int32 | int16 | int8 | byte](a, b, sum T) bool {
	return ((a > 0) && (b > 0) && (sum < 0)) || ((a < 0) && (b < 0) && (sum > 0))
}
