package matching

import "math"

// Cosine returns the cosine similarity of two embeddings. Empty vectors,
// vectors of different length and zero-norm vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	sim := dot / denom
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
