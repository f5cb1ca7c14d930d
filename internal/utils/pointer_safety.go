package utils

// Value dereferences v, returning the zero value when v is nil. Useful for
// optional fields like a token's owner.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v, for filling optional struct fields inline.
func Ptr[T any](v T) *T {
	return &v
}
