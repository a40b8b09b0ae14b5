// Package matching scores user queries against reference questions and decides
// between a stored answer and escalation to the generative fallback.
package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// tokenWeight scales the token-based ratios so that an exact character-level
// match always outranks a reordered or subset match.
const tokenWeight = 0.95

// Normalize applies NFKC normalization, lowercases, replaces every run of
// non-alphanumeric runes with a single space and trims the result.
func Normalize(text string) string {
	text = strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Score returns the 0-100 similarity between a query and a candidate question:
// the best of Ratio, TokenSortRatio and TokenSetRatio, with the token-based
// ratios weighted by 0.95. Empty input (after normalization) scores 0.
func Score(query, candidate string) int {
	return scoreNormalized(Normalize(query), Normalize(candidate))
}

// Ratio is the indel similarity of the normalized strings:
// 2*LCS / (len(a)+len(b)), scaled to 0-100.
func Ratio(a, b string) int {
	return toPercent(ratio(Normalize(a), Normalize(b)))
}

// TokenSortRatio compares the normalized strings after sorting their tokens.
func TokenSortRatio(a, b string) int {
	return toPercent(tokenSortRatio(Normalize(a), Normalize(b)))
}

// TokenSetRatio compares the shared tokens of both strings against each side's
// remainder, so a query that is a token subset of a question scores 100.
func TokenSetRatio(a, b string) int {
	return toPercent(tokenSetRatio(Normalize(a), Normalize(b)))
}

func scoreNormalized(q, c string) int {
	if q == "" || c == "" {
		return 0
	}

	best := toPercent(ratio(q, c))
	if s := toPercent(tokenWeight * tokenSortRatio(q, c)); s > best {
		best = s
	}
	if s := toPercent(tokenWeight * tokenSetRatio(q, c)); s > best {
		best = s
	}
	return best
}

func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	return 2 * float64(lcsLength(ra, rb)) / float64(len(ra)+len(rb))
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var shared, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return math.Max(
		math.Max(ratio(sect, combinedA), ratio(sect, combinedB)),
		ratio(combinedA, combinedB),
	)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// lcsLength returns the length of the longest common subsequence of a and b
// using two rolling rows.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func toPercent(r float64) int {
	return int(math.Round(r * 100))
}
