// Package extract implements the four independent field extractors. Each owns
// an ordered table of pattern groups compiled once at construction; matching
// uses the stateless regexp FindAll API, so extractor instances are safe to
// share across concurrent parses.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/eventparse/internal/model"
)

// Extractor is the shared contract: scan a processed text and emit
// confidence-scored candidates for one field type. Implementations never
// return errors; unparsable matches are dropped at the candidate level.
type Extractor interface {
	Field() model.FieldType
	Extract(pt model.ProcessedText, ctx *model.ParseContext) []model.Candidate
}

// patternGroup is one named family of alternative match patterns with a base
// confidence weight. Stricter, less ambiguous patterns carry higher weights.
type patternGroup struct {
	name     string
	weight   float64
	patterns []*regexp.Regexp
}

// finish deduplicates by semantic key (keeping the higher-confidence entry)
// and sorts by confidence descending, completeness descending, position
// ascending. Every extractor runs its output through this before returning.
func finish(cands []model.Candidate) []model.Candidate {
	byKey := make(map[string]int, len(cands))
	out := cands[:0]
	for _, c := range cands {
		c.ClampConfidence()
		key := c.Key()
		if key == "" {
			continue
		}
		if i, ok := byKey[key]; ok {
			if c.Confidence > out[i].Confidence ||
				(c.Confidence == out[i].Confidence && c.Completeness() > out[i].Completeness()) {
				out[i] = c
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Completeness() != out[j].Completeness() {
			return out[i].Completeness() > out[j].Completeness()
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// window returns the text within dist characters on either side of [start,end).
func window(s string, start, end, dist int) string {
	lo := start - dist
	if lo < 0 {
		lo = 0
	}
	hi := end + dist
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}

// containsAnyFold reports whether s contains any keyword, case-insensitively.
func containsAnyFold(s string, keywords ...string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
