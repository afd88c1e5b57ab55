package scorer

import "github.com/sells-group/eventparse/internal/model"

// Config holds the scoring tables. Built once, read-only afterwards; a single
// Scorer is safe for concurrent use.
type Config struct {
	// PatternWeights are mild per-pattern multipliers layered on top of the
	// base weights the extractors already bake into candidate confidence.
	PatternWeights map[model.FieldType]map[string]float64

	// ImportantKeywords boost matches that sit near event vocabulary.
	ImportantKeywords []string

	// KeywordWindow is how far (in bytes) on either side of a match the
	// keyword search looks.
	KeywordWindow int
}

// DefaultConfig returns the scoring tables used in production.
func DefaultConfig() Config {
	return Config{
		PatternWeights: map[model.FieldType]map[string]float64{
			model.FieldDate: {
				"iso":             1.1,
				"fullMonth":       1.1,
				"abbrevMonth":     1.05,
				"dayFirst":        1.05,
				"numeric":         0.95,
				"relative":        1.0,
				"relativeWeekday": 1.0,
				"weekday":         0.9,
			},
			model.FieldTime: {
				"explicit":     1.1,
				"doors":        1.05,
				"show":         1.05,
				"hourMeridiem": 1.0,
				"range":        1.0,
				"contextual":   1.0,
				"plain":        0.95,
				"approximate":  0.9,
			},
			model.FieldPrice: {
				"free":       1.1,
				"range":      1.05,
				"tiered":     1.05,
				"timing":     1.05,
				"startingAt": 1.0,
				"upTo":       1.0,
				"single":     0.95,
			},
			model.FieldVenue: {
				"venueSuffix": 1.1,
				"atVenue":     1.05,
				"address":     1.0,
				"location":    0.9,
			},
		},
		ImportantKeywords: []string{
			"event", "show", "concert", "performance", "tickets", "ticket",
			"admission", "venue", "doors", "live", "tonight", "presents",
		},
		KeywordWindow: 20,
	}
}

// validationRule is one (predicate, weight) pair. A pass adds weight*0.5 to
// the running validation aggregate, a fail subtracts weight*0.3.
type validationRule struct {
	name   string
	weight float64
	check  func(c *model.Candidate, ctx *model.ParseContext) bool
}

const (
	validationPassFactor = 0.5
	validationFailFactor = 0.3
	validationFloor      = 0.1
	validationCeil       = 1.5
)

// runValidation folds the field's rules into a single multiplier clamped to
// [0.1, 1.5].
func runValidation(rules []validationRule, c *model.Candidate, ctx *model.ParseContext) float64 {
	score := 1.0
	for _, r := range rules {
		if r.check(c, ctx) {
			score += r.weight * validationPassFactor
		} else {
			score -= r.weight * validationFailFactor
		}
	}
	if score < validationFloor {
		score = validationFloor
	}
	if score > validationCeil {
		score = validationCeil
	}
	return score
}
