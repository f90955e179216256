// Package matching scores record pairs field by field and decides which pairs are the same consumer.
package matching

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// StringSimilarity scores two strings in [0,1]. Implementations must be symmetric.
type StringSimilarity interface {
	Similarity(a, b string) float64
}

// SimilarityFunc adapts a plain function to StringSimilarity.
type SimilarityFunc func(a, b string) float64

func (f SimilarityFunc) Similarity(a, b string) float64 {
	return f(a, b)
}

// Metric names accepted by NewSimilarity.
const (
	MetricIndel       = "indel"
	MetricJaroWinkler = "jaro_winkler"
	MetricLevenshtein = "levenshtein"
)

// NewSimilarity returns the metric registered under name.
func NewSimilarity(name string) (StringSimilarity, error) {
	switch name {
	case "", MetricIndel:
		return SimilarityFunc(IndelRatio), nil
	case MetricJaroWinkler:
		return SimilarityFunc(JaroWinkler), nil
	case MetricLevenshtein:
		return SimilarityFunc(LevenshteinRatio), nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

// IndelRatio is 2*LCS(a,b) / (|a|+|b|) over runes. Two empty strings are identical.
func IndelRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0
	}
	if a == b {
		return 1.0
	}
	return float64(2*matchr.LongestCommonSubsequence(a, b)) / float64(total)
}

// JaroWinkler is the Jaro-Winkler similarity, taken in both argument orders so it stays symmetric.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return max(matchr.JaroWinkler(a, b, false), matchr.JaroWinkler(b, a, false))
}

// LevenshteinRatio is 1 - distance / max(|a|,|b|) over runes.
func LevenshteinRatio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(matchr.Levenshtein(a, b))/float64(longest)
}

// TokenSet compares whitespace-separated token sets so token order and extra tokens on one
// side do not lower the score. The shared tokens are compared against each side's full
// token list, and the best of the three pairwise scores wins.
type TokenSet struct {
	Base StringSimilarity
}

func (t TokenSet) Similarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	var shared, onlyA, onlyB []string
	for _, token := range tokensA {
		if _, ok := slices.BinarySearch(tokensB, token); ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for _, token := range tokensB {
		if _, ok := slices.BinarySearch(tokensA, token); !ok {
			onlyB = append(onlyB, token)
		}
	}

	t0 := strings.Join(shared, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	return max(
		t.Base.Similarity(t0, t1),
		t.Base.Similarity(t0, t2),
		t.Base.Similarity(t1, t2),
	)
}

// tokenSet returns the sorted distinct tokens of s.
func tokenSet(s string) []string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

// ExactMatch returns 1.0 for identical strings, 0.0 otherwise
func ExactMatch(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}
