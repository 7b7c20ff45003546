package utils

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return roundTo(v, 100)
}

// Round4 rounds v to four decimal places.
func Round4(v float64) float64 {
	return roundTo(v, 10000)
}

func roundTo(v float64, factor float64) float64 {
	if v < 0 {
		return float64(int64(v*factor-0.5)) / factor
	}
	return float64(int64(v*factor+0.5)) / factor
}
