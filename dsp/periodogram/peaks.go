package periodogram

// FindPeaks returns the indices of local maxima of x whose value is at least
// height, in increasing index order.
//
// A local maximum is a sample strictly greater than its left neighbour and
// strictly greater than the first differing sample to its right. Flat-topped
// peaks are reported at the middle of the plateau (rounded down). The first
// and last samples are never peaks.
func FindPeaks(x []float64, height float64) []int {
	var peaks []int
	iMax := len(x) - 1
	for i := 1; i < iMax; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < iMax && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			mid := (i + ahead - 1) / 2
			if x[mid] >= height {
				peaks = append(peaks, mid)
			}
			i = ahead
		}
	}
	return peaks
}
