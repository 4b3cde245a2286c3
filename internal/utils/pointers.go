// Package utils has the small generic helpers shared across packages.
package utils

// Value dereferences v, giving the zero value for nil. Backend payloads use
// pointers for nullable columns and for "datos" itself.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr is for optional request fields.
func Ptr[T any](v T) *T {
	return &v
}
