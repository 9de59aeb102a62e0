package validate

// levenshtein computes edit distance between a and b. Used only to produce
// "did you mean" suggestions for misspelled node names and ids; not
// performance-critical since workflows rarely exceed a few hundred nodes.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// closestName returns the candidate in candidates nearest to target by edit
// distance, or "" if candidates is empty or nothing is reasonably close.
func closestName(target string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein(target, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	// Beyond this, a suggestion does more harm than good.
	if bestDist > len(target)/2+2 {
		return ""
	}
	return best
}
