package llm

import "math"

// NormalizeVector scales v to unit length in place. Zero vectors are left
// untouched. Providers whose APIs cannot normalize server side use this to
// honor the normalize flag on Embed.
func NormalizeVector(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
