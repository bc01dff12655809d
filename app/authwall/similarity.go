package authwall

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxCompareRunes bounds the input of Similarity; longer texts are compared
// on their leading runes only.
const MaxCompareRunes = 5000

// Similarity returns the similar-text percentage of a and b (0-100): twice
// the number of shared characters, found by recursive longest common
// substring matching, over the combined length.
func Similarity(a, b string) float64 {
	ra := prepare(a)
	rb := prepare(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return float64(commonChars(ra, rb)*2) * 100 / float64(total)
}

func prepare(s string) []rune {
	s = norm.NFC.String(strings.Join(strings.Fields(s), " "))
	r := []rune(s)
	if len(r) > MaxCompareRunes {
		r = r[:MaxCompareRunes]
	}
	return r
}

func commonChars(a, b []rune) int {
	pos1, pos2, max := longestCommon(a, b)
	if max == 0 {
		return 0
	}

	sum := max
	if pos1 > 0 && pos2 > 0 {
		sum += commonChars(a[:pos1], b[:pos2])
	}
	if pos1+max < len(a) && pos2+max < len(b) {
		sum += commonChars(a[pos1+max:], b[pos2+max:])
	}
	return sum
}

// longestCommon finds the first longest common substring, scanning a then b.
func longestCommon(a, b []rune) (pos1, pos2, max int) {
	for p := 0; p < len(a); p++ {
		if len(a)-p <= max {
			break
		}
		for q := 0; q < len(b); q++ {
			if len(b)-q <= max {
				break
			}
			l := 0
			for p+l < len(a) && q+l < len(b) && a[p+l] == b[q+l] {
				l++
			}
			if l > max {
				pos1, pos2, max = p, q, l
			}
		}
	}
	return pos1, pos2, max
}
