package scorer

import (
	"time"

	"github.com/sells-group/eventparse/internal/model"
)

func dateRules() []validationRule {
	return []validationRule{
		{
			name:   "plausible_future",
			weight: 0.3,
			check: func(c *model.Candidate, ctx *model.ParseContext) bool {
				diff := c.Date.Resolved.Sub(ctx.EffectiveNow())
				return diff >= -24*time.Hour && diff <= 2*365*24*time.Hour
			},
		},
		{
			name:   "weekday_agrees",
			weight: 0.2,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if c.Date.Weekday == "" {
					return true
				}
				return c.Date.Resolved.Weekday().String() == c.Date.Weekday
			},
		},
		{
			name:   "not_ambiguous",
			weight: 0.2,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				return !c.Date.Ambiguous
			},
		},
	}
}

func timeRules() []validationRule {
	return []validationRule{
		{
			name:   "event_hours",
			weight: 0.3,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				h := c.Time.Hour
				return (h >= 6 && h <= 23) || h <= 2
			},
		},
		{
			name:   "explicit_period",
			weight: 0.25,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				return c.Time.ExplicitPeriod
			},
		},
		{
			name:   "round_minutes",
			weight: 0.15,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				m := c.Time.Minute
				return m == 0 || m == 15 || m == 30 || m == 45
			},
		},
		{
			name:   "valid_range",
			weight: 0.2,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if !c.Time.HasEnd {
					return true
				}
				start := c.Time.Hour*60 + c.Time.Minute
				end := c.Time.EndHour*60 + c.Time.EndMinute
				// Ending after midnight is a valid rollover.
				return end > start || c.Time.EndHour <= 4
			},
		},
	}
}

func priceRules() []validationRule {
	return []validationRule{
		{
			name:   "reasonable_amount",
			weight: 0.3,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if c.Price.Free {
					return true
				}
				for _, amt := range []*float64{c.Price.Min, c.Price.Max} {
					if amt != nil && (*amt < 0 || *amt > 500) {
						return false
					}
				}
				return true
			},
		},
		{
			name:   "ordered_bounds",
			weight: 0.25,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if c.Price.Min == nil || c.Price.Max == nil {
					return true
				}
				return *c.Price.Min <= *c.Price.Max
			},
		},
		{
			name:   "modest_spread",
			weight: 0.15,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if c.Price.Min == nil || c.Price.Max == nil {
					return true
				}
				return *c.Price.Max-*c.Price.Min <= 200
			},
		},
		{
			name:   "free_consistent",
			weight: 0.2,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				if !c.Price.Free {
					return true
				}
				return c.Price.Min == nil || *c.Price.Min == 0
			},
		},
	}
}

func venueRules() []validationRule {
	return []validationRule{
		{
			name:   "name_length",
			weight: 0.2,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				n := len(c.Venue.Name)
				return n >= 3 && n <= 60
			},
		},
		{
			name:   "multi_word",
			weight: 0.15,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				return len(c.Venue.Name) > 0 && countWords(c.Venue.Name) >= 2
			},
		},
		{
			name:   "capitalized",
			weight: 0.15,
			check: func(c *model.Candidate, _ *model.ParseContext) bool {
				name := c.Venue.Name
				return name != "" && name[0] >= 'A' && name[0] <= 'Z'
			},
		},
		{
			name:   "known_match",
			weight: 0.3,
			check: func(c *model.Candidate, ctx *model.ParseContext) bool {
				if len(ctx.KnownVenues) == 0 {
					// No list to check against; do not penalize.
					return true
				}
				return c.Venue.KnownRef != nil
			},
		},
	}
}

func rulesFor(field model.FieldType) []validationRule {
	switch field {
	case model.FieldDate:
		return dateRules()
	case model.FieldTime:
		return timeRules()
	case model.FieldPrice:
		return priceRules()
	case model.FieldVenue:
		return venueRules()
	}
	return nil
}

func countWords(s string) int {
	n, inWord := 0, false
	for _, r := range s {
		if r == ' ' {
			inWord = false
		} else if !inWord {
			n++
			inWord = true
		}
	}
	return n
}
