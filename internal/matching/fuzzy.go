package matching

import "strings"

// FuzzyScore rates the similarity of two strings in [0, 1]:
// 1.0 when equal after normalization, 0.8 when one contains the other,
// otherwise the shared-word ratio against the larger word set.
func FuzzyScore(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return fuzzyNormalized(na, nb)
}

// fuzzyNormalized is FuzzyScore for inputs that are already normalized.
func fuzzyNormalized(na, nb string) float64 {
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	wa, wb := words(na), words(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / float64(max(len(wa), len(wb)))
}
