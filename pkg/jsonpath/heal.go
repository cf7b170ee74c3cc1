package jsonpath

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultMinConfidence is the score below which alternative paths are
// discarded when no explicit threshold is configured.
const DefaultMinConfidence = 0.7

// Candidate is an alternative path discovered inside a document, scored by
// its similarity to the path that missed.
type Candidate struct {
	Path       string
	Confidence float64
}

// Lookup is the outcome of a path resolution that may have healed onto an
// alternative path.
type Lookup struct {
	Value      any
	Found      bool
	Healed     bool
	UsedPath   string
	Confidence float64
}

// GetWithHealing resolves path inside value, falling back to the closest
// alternative path when the exact lookup misses. minConfidence <= 0 applies
// DefaultMinConfidence.
func GetWithHealing(value any, path string, minConfidence float64) Lookup {
	if v, ok := Get(value, path); ok {
		return Lookup{Value: v, Found: true, UsedPath: path, Confidence: 1}
	}
	alt := FindAlternativePath(value, path, minConfidence)
	if alt == nil {
		return Lookup{}
	}
	v, ok := Get(value, alt.Path)
	if !ok {
		return Lookup{}
	}
	return Lookup{Value: v, Found: true, Healed: true, UsedPath: alt.Path, Confidence: alt.Confidence}
}

// FindAlternativePath enumerates every concrete path inside value and
// returns the one most similar to path, or nil when none reaches the
// confidence threshold. The score blends the similarity of the final
// segments (weight 0.7) with the similarity of the full paths (weight 0.3).
func FindAlternativePath(value any, path string, minConfidence float64) *Candidate {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	wantLast := lastSegment(path)
	var best *Candidate
	for _, candidate := range collectPaths(value) {
		score := 0.7*similarity(wantLast, lastSegment(candidate)) + 0.3*similarity(path, candidate)
		if score < minConfidence {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &Candidate{Path: candidate, Confidence: score}
		}
	}
	return best
}

// collectPaths lists every path reachable in value, objects and arrays
// included, in deterministic order.
func collectPaths(value any) []string {
	var paths []string
	var walk func(v any, prefix string)
	walk = func(v any, prefix string) {
		switch val := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				p := k
				if prefix != "" {
					p = prefix + "." + k
				}
				paths = append(paths, p)
				walk(val[k], p)
			}
		case []any:
			for i, item := range val {
				p := prefix + "[" + strconv.Itoa(i) + "]"
				paths = append(paths, p)
				walk(item, p)
			}
		}
	}
	walk(value, "")
	return paths
}

func lastSegment(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// similarity is 1 minus the normalized edit distance between the two
// strings, compared case-insensitively. Two empty strings are identical.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(longest)
}

// editDistance is the unit-cost Levenshtein distance.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
