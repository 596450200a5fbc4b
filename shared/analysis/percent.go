package analysis

import (
	"math"
	"sort"
)

// percentages converts counts into whole percentages that sum to exactly 100.
// Each share is rounded half away from zero; the rounding residual is added
// to counts[residual], or to the largest share if that would go negative.
func percentages(counts []int, total, residual int) []int {
	out := make([]int, len(counts))
	if total <= 0 || len(counts) == 0 {
		return out
	}

	sum := 0
	for i, c := range counts {
		out[i] = (c*200 + total) / (2 * total)
		sum += out[i]
	}

	diff := 100 - sum
	if diff == 0 {
		return out
	}
	if residual < 0 || residual >= len(out) || out[residual]+diff < 0 {
		residual = argmax(out)
	}
	out[residual] += diff
	return out
}

// argmax returns the index of the largest value, first wins on ties.
func argmax(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
