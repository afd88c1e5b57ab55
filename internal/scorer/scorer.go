// Package scorer re-weights extractor candidates: pattern-type weights,
// per-field validation rules, text-quality and positional signals, then
// cross-field consistency and caller-context adjustments.
package scorer

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/sells-group/eventparse/internal/model"
)

// Scorer applies the multiplicative scoring passes. Construct once with New
// and share freely; Score never mutates its inputs.
type Scorer struct {
	cfg   Config
	rules map[model.FieldType][]validationRule
}

// New creates a Scorer with the given config tables.
func New(cfg Config) *Scorer {
	rules := make(map[model.FieldType][]validationRule, len(model.AllFields))
	for _, f := range model.AllFields {
		rules[f] = rulesFor(f)
	}
	return &Scorer{cfg: cfg, rules: rules}
}

// Score returns a new per-field candidate map with adjusted confidences and
// scoring traces. Input lists are copied, never mutated.
func (s *Scorer) Score(fields map[model.FieldType][]model.Candidate, pt model.ProcessedText, ctx *model.ParseContext) map[model.FieldType][]model.Candidate {
	if ctx == nil {
		ctx = &model.ParseContext{}
	}

	out := make(map[model.FieldType][]model.Candidate, len(fields))
	for field, cands := range fields {
		scored := make([]model.Candidate, len(cands))
		copy(scored, cands)
		for i := range scored {
			s.scoreCandidate(&scored[i], pt, ctx)
		}
		out[field] = scored
	}

	s.crossFieldAdjust(out, ctx)
	s.contextAdjust(out, ctx)

	// Free-admission phrasing keeps its confidence floor through every pass.
	for i := range out[model.FieldPrice] {
		c := &out[model.FieldPrice][i]
		if c.Price != nil && c.Price.Free && c.Confidence < 0.9 {
			c.Confidence = 0.9
		}
	}

	for _, cands := range out {
		for i := range cands {
			cands[i].ClampConfidence()
		}
	}

	zap.L().Debug("scored candidates",
		zap.Int("date", len(out[model.FieldDate])),
		zap.Int("time", len(out[model.FieldTime])),
		zap.Int("price", len(out[model.FieldPrice])),
		zap.Int("venue", len(out[model.FieldVenue])))
	return out
}

func (s *Scorer) scoreCandidate(c *model.Candidate, pt model.ProcessedText, ctx *model.ParseContext) {
	pw := s.patternWeight(c.Field, c.PatternType)
	vs := runValidation(s.rules[c.Field], c, ctx)
	qf := s.qualityFactor(c, pt)
	pf := s.positionFactor(c, pt)

	c.Trace = &model.ScoringTrace{
		PatternWeight:   pw,
		ValidationScore: vs,
		QualityFactor:   qf,
		PositionFactor:  pf,
	}
	c.Confidence *= pw
	c.ClampConfidence()
	c.Confidence *= vs
	c.ClampConfidence()
	c.Confidence *= qf
	c.ClampConfidence()
	c.Confidence *= pf
	c.ClampConfidence()
}

func (s *Scorer) patternWeight(field model.FieldType, pattern string) float64 {
	if table, ok := s.cfg.PatternWeights[field]; ok {
		if w, ok := table[pattern]; ok {
			return w
		}
	}
	return 1.0
}

// qualityFactor derives a multiplier from the overall text quality plus local
// anomalies around the match itself.
func (s *Scorer) qualityFactor(c *model.Candidate, pt model.ProcessedText) float64 {
	f := pt.Quality
	if f < 0.1 {
		f = 0.1
	}

	if hasUnusualChars(c.Text) {
		f *= 0.9
	}
	if strings.Contains(c.Text, "  ") {
		f *= 0.9
	}
	if c.Field == model.FieldVenue && c.Text != "" {
		if r := rune(c.Text[0]); r >= 'A' && r <= 'Z' {
			f *= 1.05
		}
	}

	if f > 1.3 {
		f = 1.3
	}
	return f
}

// positionFactor rewards matches early in the text and near event vocabulary,
// and mildly penalizes trailing-edge matches.
func (s *Scorer) positionFactor(c *model.Candidate, pt model.ProcessedText) float64 {
	f := 1.0
	n := len(pt.Normalized)
	if n > 0 {
		rel := float64(c.Position) / float64(n)
		if rel < 0.3 {
			f *= 1.05
		} else if rel > 0.8 {
			f *= 0.95
		}
	}

	lo := c.Position - s.cfg.KeywordWindow
	if lo < 0 {
		lo = 0
	}
	hi := c.Position + len(c.Text) + s.cfg.KeywordWindow
	if hi > n {
		hi = n
	}
	nearby := strings.ToLower(pt.Normalized[lo:hi])
	for _, kw := range s.cfg.ImportantKeywords {
		if strings.Contains(nearby, kw) {
			f *= 1.1
			break
		}
	}
	return f
}

func hasUnusualChars(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '$', '€', '£', '.', ',', ':', '-', '/', '@', '\'', '&', '#', '(', ')':
			continue
		}
		return true
	}
	return false
}
