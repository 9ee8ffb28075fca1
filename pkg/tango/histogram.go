package tango

import "time"

// Buckets are the look-back windows of the histogram, in seconds.
var Buckets = []int{
	1, 2, 3, 5, 10, 15, 20, 30, 60, 120, 300, 600, 1800, 3600, 7200, 14400,
	28800, 57600, 86400, 172800, 259200, 345600, 432000, 518400, 604800,
	1209600, 2592000,
}

// Histogram counts, for every bucket, the submissions that started less
// than that many seconds before now. Counts are cumulative.
func Histogram(starts []time.Time, now time.Time) map[int]int {
	out := make(map[int]int, len(Buckets))
	for _, b := range Buckets {
		out[b] = 0
	}
	for _, t := range starts {
		ago := now.Sub(t).Seconds()
		for _, b := range Buckets {
			if ago < float64(b) {
				out[b]++
			}
		}
	}
	return out
}
