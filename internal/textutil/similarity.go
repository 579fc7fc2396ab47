package textutil

// SequenceRatio computes a character-level similarity ratio between two
// strings using Ratcliff/Obershelp matching: 2*M/T where M is the number of
// matched characters across recursively found longest common substrings and
// T is the combined length. Result is in [0, 1].
func SequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingChars([]byte(a), []byte(b))
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingChars counts characters in matching blocks, recursing on the
// unmatched regions either side of the longest common substring.
func matchingChars(a, b []byte) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonSubstring returns the start offsets and length of the longest
// run of bytes common to a and b.
func longestCommonSubstring(a, b []byte) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// Single rolling row keeps memory bounded on long transcripts.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	bestA, bestB, bestLen := 0, 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestA, bestB, bestLen
}
