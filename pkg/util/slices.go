package util

// InPlaceFilter keeps the elements of s for which keep returns true, reusing
// the backing array
func InPlaceFilter[T any](s *[]T, keep func(T) bool) {
	n := 0
	for _, element := range *s {
		if keep(element) {
			(*s)[n] = element
			n++
		}
	}
	*s = (*s)[:n]
}
