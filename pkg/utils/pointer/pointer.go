package pointer

// Ref returns pointer to v.
func Ref[T any](v T) *T {
	return &v
}

// Deref returns the value pointed by p, or zero-value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		return *new(T)
	}
	return *p
}

// Equal tests two pointers point equal values.
//
// nil equals only nil.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
