package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/eventparse/internal/model"
)

// TimeExtractor finds clock times: explicit hour:minute forms, bare hours with
// a meridiem, doors/show phrasings, ranges, and contextual words like noon.
// Hours without an explicit AM/PM are resolved by event-context inference.
type TimeExtractor struct {
	groups []patternGroup
}

// NewTimeExtractor compiles the time pattern table.
func NewTimeExtractor() *TimeExtractor {
	return &TimeExtractor{groups: []patternGroup{
		{name: "explicit", weight: 0.95, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(AM|PM|A\.M\.|P\.M\.)`),
		}},
		{name: "doors", weight: 0.9, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdoors?(?:\s+open)?(?:\s+at)?\s+(\d{1,2})(?::(\d{2}))?\s*(AM|PM|A\.M\.|P\.M\.)?`),
		}},
		{name: "show", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:show|concert|performance|event|music|starts?|begins?)(?:\s+(?:starts?|begins?|time))?(?:\s+at)?\s+(\d{1,2})(?::(\d{2}))?\s*(AM|PM|A\.M\.|P\.M\.)?\b`),
		}},
		{name: "hourMeridiem", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d{1,2})\s*(AM|PM|A\.M\.|P\.M\.)`),
		}},
		{name: "range", weight: 0.8, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?\s*(?:-|–|to|until)\s*(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?\b`),
		}},
		{name: "contextual", weight: 0.75, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(noon|midday|midnight)\b`),
		}},
		{name: "plain", weight: 0.7, patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`),
		}},
		{name: "approximate", weight: 0.6, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:around|about|approx\.?|approximately|~)\s*(\d{1,2})(?::(\d{2}))?\s*(AM|PM)?\b`),
		}},
	}}
}

func (e *TimeExtractor) Field() model.FieldType { return model.FieldTime }

// Extract scans for time candidates and resolves implicit meridiems from the
// surrounding text.
func (e *TimeExtractor) Extract(pt model.ProcessedText, _ *model.ParseContext) []model.Candidate {
	text := pt.Normalized

	var cands []model.Candidate
	for _, g := range e.groups {
		for _, re := range g.patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				if c := e.parseMatch(g, text, loc); c != nil {
					cands = append(cands, *c)
				}
			}
		}
	}
	return finish(cands)
}

func (e *TimeExtractor) parseMatch(g patternGroup, text string, loc []int) *model.Candidate {
	matched := text[loc[0]:loc[1]]
	sub := func(i int) string {
		if 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	v := &model.TimeValue{Kind: model.TimePlain}

	switch g.name {
	case "contextual":
		v.Kind = model.TimeContextual
		v.ExplicitPeriod = true
		if strings.EqualFold(sub(1), "midnight") {
			v.Hour, v.Period = 0, "AM"
		} else {
			v.Hour, v.Period = 12, "PM"
		}
	case "range":
		// Apostrophe-prefixed numbers are years ('24), not times.
		if loc[0] > 0 && text[loc[0]-1] == '\'' {
			return nil
		}
		startHour, _ := strconv.Atoi(sub(1))
		startMin, _ := strconv.Atoi(sub(2))
		endHour, _ := strconv.Atoi(sub(4))
		endMin, _ := strconv.Atoi(sub(5))
		if !validClock(startHour, startMin) || !validClock(endHour, endMin) {
			return nil
		}
		v.Kind = model.TimeRange
		v.Hour, v.Minute = startHour, startMin
		v.HasEnd = true

		startPeriod, endPeriod := normMeridiem(sub(3)), normMeridiem(sub(6))
		if startPeriod == "" && endPeriod != "" {
			startPeriod = endPeriod
		}
		if endPeriod == "" && startPeriod != "" {
			endPeriod = startPeriod
		}
		v.Period = startPeriod
		v.ExplicitPeriod = sub(3) != "" || sub(6) != ""
		if v.Period == "" {
			v.Period = inferMeridiem(v.Hour, text, loc[0])
		}
		if endPeriod == "" {
			endPeriod = inferMeridiem(endHour, text, loc[0])
		}
		v.Hour = to24h(v.Hour, v.Period)
		v.EndHour, v.EndMinute = to24h(endHour, endPeriod), endMin
	default:
		// A bare hour preceded by a colon is the minutes of a larger time
		// ("8:00 PM" must not also yield "00 PM").
		if g.name == "hourMeridiem" && loc[0] > 0 && text[loc[0]-1] == ':' {
			return nil
		}
		hour, _ := strconv.Atoi(sub(1))
		minute := 0
		period := ""
		if g.name == "hourMeridiem" {
			period = normMeridiem(sub(2))
		} else {
			minute, _ = strconv.Atoi(sub(2))
			period = normMeridiem(sub(3))
		}
		if !validClock(hour, minute) {
			return nil
		}
		v.Hour, v.Minute = hour, minute

		switch g.name {
		case "doors":
			v.Kind = model.TimeDoors
		case "show":
			v.Kind = model.TimeShow
		case "approximate":
			v.Kind = model.TimeApproximate
		}
		v.ExplicitPeriod = period != ""
		if period == "" {
			if v.Hour > 12 {
				// Already 24-hour.
				period = "PM"
				v.ExplicitPeriod = true
			} else {
				period = inferMeridiem(v.Hour, text, loc[0])
			}
		}
		v.Period = period
		v.Hour = to24h(v.Hour, period)
	}

	c := &model.Candidate{
		Field: model.FieldTime, PatternType: g.name,
		Text: matched, Position: loc[0],
		Confidence: timeConfidence(g.weight, v),
		Time:       v,
	}
	return c
}

// timeConfidence applies the extraction-time adjustments: explicit meridiem
// bonus, missing-meridiem penalty, round-minute bonus, and a small bias toward
// plausible event hours.
func timeConfidence(base float64, v *model.TimeValue) float64 {
	conf := base
	if v.ExplicitPeriod {
		conf += 0.1
	} else if v.Kind != model.TimeContextual {
		conf -= 0.2
	}
	if v.Minute == 0 || v.Minute == 15 || v.Minute == 30 || v.Minute == 45 {
		conf += 0.05
	}
	if (v.Hour >= 6 && v.Hour <= 23) || v.Hour <= 2 {
		conf += 0.05
	} else {
		conf -= 0.05
	}
	return clamp01(conf)
}

// inferMeridiem resolves a bare 1-12 hour using event conventions: afternoon
// and evening hours dominate unless nearby text says morning.
func inferMeridiem(hour int, text string, pos int) string {
	switch {
	case hour >= 13:
		return "PM"
	case hour == 12:
		return "PM"
	case hour >= 7 && hour <= 11:
		ctx := window(text, pos, pos, 40)
		if containsAnyFold(ctx, "morning", "breakfast", "brunch", "lunch") {
			return "AM"
		}
		return "PM"
	default:
		// 1-6 without a marker is almost always afternoon for events.
		return "PM"
	}
}

func to24h(hour int, period string) int {
	if hour > 12 {
		return hour
	}
	switch period {
	case "PM":
		if hour != 12 {
			return hour + 12
		}
		return 12
	case "AM":
		if hour == 12 {
			return 0
		}
		return hour
	}
	return hour
}

func normMeridiem(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(s, ".", ""))
	if s == "AM" || s == "PM" {
		return s
	}
	return ""
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
