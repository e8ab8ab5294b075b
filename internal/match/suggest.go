package match

// MinSimilarity is the similarity below which Closest gives up.
const MinSimilarity = 0.6

// Closest returns the candidate most similar to name. Ties go to the
// earlier candidate. It reports false when nothing reaches MinSimilarity or
// when name itself is a candidate.
func Closest(name string, candidates []string) (string, bool) {
	best, bestScore := "", 0.0

	for _, c := range candidates {
		if c == name {
			return "", false
		}

		if score := Similarity(name, c); score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < MinSimilarity {
		return "", false
	}

	return best, true
}
