package pure_utils

// Map returns a new slice with the same length as src, with values transformed by f.
func Map[T, U any](src []T, f func(T) U) []U {
	us := make([]U, len(src))
	for i := range src {
		us[i] = f(src[i])
	}
	return us
}

// MapValues returns a shallow copy of m. Used to detach property bags from
// their owning entity before they are stored in a snapshot.
func MapValues[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
