package scorer

import (
	"strings"
	"time"

	"github.com/sells-group/eventparse/internal/model"
)

// crossFieldAdjust runs the consistency passes over the scored lists: date
// against time, doors against show, time ranges, price against venue, and
// event-type keyword biases.
func (s *Scorer) crossFieldAdjust(fields map[model.FieldType][]model.Candidate, ctx *model.ParseContext) {
	s.adjustDateTime(fields)
	s.adjustDoorsShow(fields[model.FieldTime])
	s.adjustRanges(fields[model.FieldTime])
	s.adjustPriceVenue(fields, ctx)
	s.adjustEventType(fields, ctx)
}

func best(cands []model.Candidate) *model.Candidate {
	var top *model.Candidate
	for i := range cands {
		if top == nil || cands[i].Confidence > top.Confidence {
			top = &cands[i]
		}
	}
	return top
}

func bestOfKind(cands []model.Candidate, kind model.TimeKind) *model.Candidate {
	var top *model.Candidate
	for i := range cands {
		if cands[i].Time == nil || cands[i].Time.Kind != kind {
			continue
		}
		if top == nil || cands[i].Confidence > top.Confidence {
			top = &cands[i]
		}
	}
	return top
}

// adjustDateTime gives weekday daytime events a small plausibility bonus.
// Weekend events run late routinely, so late weekend times are left alone.
func (s *Scorer) adjustDateTime(fields map[model.FieldType][]model.Candidate) {
	date := best(fields[model.FieldDate])
	tm := best(fields[model.FieldTime])
	if date == nil || tm == nil || date.Date == nil || tm.Time == nil {
		return
	}
	wd := date.Date.Resolved.Weekday()
	weekend := wd == time.Saturday || wd == time.Sunday
	if !weekend && tm.Time.Hour < 18 && tm.Time.Hour >= 8 {
		bump(tm, 1.05)
	}
}

// adjustDoorsShow boosts both the doors and show candidates when doors come
// before showtime, and penalizes both by the same factor when inverted.
func (s *Scorer) adjustDoorsShow(times []model.Candidate) {
	doors := bestOfKind(times, model.TimeDoors)
	show := bestOfKind(times, model.TimeShow)
	if doors == nil || show == nil {
		return
	}
	dm := doors.Time.Hour*60 + doors.Time.Minute
	sm := show.Time.Hour*60 + show.Time.Minute
	if dm < sm {
		bump(doors, 1.1)
		bump(show, 1.1)
	} else {
		bump(doors, 0.9)
		bump(show, 0.9)
	}
}

// adjustRanges boosts range candidates whose end follows their start,
// allowing rollover past midnight.
func (s *Scorer) adjustRanges(times []model.Candidate) {
	for i := range times {
		v := times[i].Time
		if v == nil || !v.HasEnd {
			continue
		}
		start := v.Hour*60 + v.Minute
		end := v.EndHour*60 + v.EndMinute
		if end > start || v.EndHour <= 4 {
			bump(&times[i], 1.05)
		}
	}
}

// adjustPriceVenue checks price plausibility against venue size and type.
func (s *Scorer) adjustPriceVenue(fields map[model.FieldType][]model.Candidate, ctx *model.ParseContext) {
	price := best(fields[model.FieldPrice])
	venue := best(fields[model.FieldVenue])
	if price == nil || venue == nil || price.Price == nil || venue.Venue == nil {
		return
	}

	capacity := ctx.VenueCapacity
	if capacity == 0 && venue.Venue.KnownRef != nil {
		capacity = venue.Venue.KnownRef.Capacity
	}
	if capacity > 0 && !price.Price.Free {
		amt := 0.0
		if price.Price.Min != nil {
			amt = *price.Price.Min
		} else if price.Price.Max != nil {
			amt = *price.Price.Max
		}
		if capacity >= 1000 && amt > 0 && amt < 10 {
			bump(price, 0.9)
			bump(venue, 0.9)
		}
		if capacity <= 200 && amt > 150 {
			bump(price, 0.9)
			bump(venue, 0.9)
		}
	}

	name := strings.ToLower(venue.Venue.Name)
	if price.Price.Free && (strings.Contains(name, "museum") || strings.Contains(name, "gallery")) {
		bump(price, 1.1)
		bump(venue, 1.05)
	}
}

// adjustEventType applies caller-declared event-type biases to the top time
// and price candidates.
func (s *Scorer) adjustEventType(fields map[model.FieldType][]model.Candidate, ctx *model.ParseContext) {
	et := strings.ToLower(ctx.EventType)
	if et == "" {
		return
	}
	tm := best(fields[model.FieldTime])
	price := best(fields[model.FieldPrice])

	switch {
	case strings.Contains(et, "concert") || strings.Contains(et, "music"):
		if tm != nil && tm.Time != nil && tm.Time.Hour >= 18 {
			bump(tm, 1.05)
		}
		if price != nil && price.Price != nil && !price.Price.Free {
			if price.Price.Min != nil && *price.Price.Min >= 10 {
				bump(price, 1.05)
			}
		}
	case strings.Contains(et, "theater") || strings.Contains(et, "theatre"):
		if tm != nil && tm.Time != nil {
			h := tm.Time.Hour
			if (h >= 13 && h <= 17) || (h >= 19 && h <= 21) {
				bump(tm, 1.05)
			}
		}
	case strings.Contains(et, "workshop") || strings.Contains(et, "class"):
		if tm != nil && tm.Time != nil && tm.Time.Hour >= 9 && tm.Time.Hour <= 17 {
			bump(tm, 1.05)
		}
	}
}

// contextAdjust applies caller-supplied signals: known-venue and expected
// location bonuses, recurring-event weekday bonus, and the uniform historical
// accuracy scale.
func (s *Scorer) contextAdjust(fields map[model.FieldType][]model.Candidate, ctx *model.ParseContext) {
	venues := fields[model.FieldVenue]
	expected := strings.ToLower(ctx.ExpectedLocation)
	for i := range venues {
		v := venues[i].Venue
		if v == nil {
			continue
		}
		if v.KnownRef != nil {
			bump(&venues[i], 1.1)
		}
		if expected != "" {
			if strings.Contains(strings.ToLower(v.Name), expected) ||
				(v.KnownRef != nil && strings.EqualFold(v.KnownRef.City, ctx.ExpectedLocation)) {
				bump(&venues[i], 1.05)
			}
		}
	}

	if ctx.RecurringEvent {
		dates := fields[model.FieldDate]
		for i := range dates {
			if dates[i].Date != nil && dates[i].Date.Relative && dates[i].Date.Weekday != "" {
				bump(&dates[i], 1.05)
			}
		}
	}

	if scale := ctx.AccuracyScale(); scale != 1.0 {
		for _, cands := range fields {
			for i := range cands {
				bump(&cands[i], scale)
			}
		}
	}
}

func bump(c *model.Candidate, factor float64) {
	c.Confidence *= factor
	c.ClampConfidence()
}
