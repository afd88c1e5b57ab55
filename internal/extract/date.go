package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/eventparse/internal/model"
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`
const monthAbbrs = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sept?|Oct|Nov|Dec`
const weekdayNames = `Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday`

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var weekdayIndex = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// DateExtractor finds calendar dates: month-name forms, numeric forms (tried
// under both month-first and day-first interpretations), ISO dates, relative
// expressions, and bare weekday names.
type DateExtractor struct {
	groups []patternGroup
}

// NewDateExtractor compiles the date pattern table.
func NewDateExtractor() *DateExtractor {
	return &DateExtractor{groups: []patternGroup{
		{name: "iso", weight: 0.95, patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		}},
		{name: "fullMonth", weight: 0.9, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?\b`),
		}},
		{name: "abbrevMonth", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(` + monthAbbrs + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?\b`),
		}},
		{name: "dayFirst", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `|` + monthAbbrs + `)\b\.?(?:\s*,?\s*(\d{4}))?`),
		}},
		{name: "numeric", weight: 0.7, patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})\b`),
		}},
		{name: "relative", weight: 0.8, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(today|tonight|tomorrow)\b`),
		}},
		{name: "relativeWeekday", weight: 0.75, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(this|next)\s+(` + weekdayNames + `)\b`),
		}},
		{name: "weekday", weight: 0.5, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(` + weekdayNames + `)\b`),
		}},
	}}
}

func (e *DateExtractor) Field() model.FieldType { return model.FieldDate }

// Extract scans for date candidates. Numeric N/M/Y matches emit one candidate
// per valid interpretation, flagged ambiguous when both survive.
func (e *DateExtractor) Extract(pt model.ProcessedText, ctx *model.ParseContext) []model.Candidate {
	text := pt.Normalized
	now := ctx.EffectiveNow()

	var cands []model.Candidate
	for _, g := range e.groups {
		for _, re := range g.patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				for _, c := range e.parseMatch(g, re, text, loc, now) {
					cands = append(cands, c)
				}
			}
		}
	}
	return finish(cands)
}

func (e *DateExtractor) parseMatch(g patternGroup, re *regexp.Regexp, text string, loc []int, now time.Time) []model.Candidate {
	matched := text[loc[0]:loc[1]]
	sub := func(i int) string {
		if 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	mk := func(day, month, year int, relative, ambiguous bool, explicitYear bool) *model.Candidate {
		if year == 0 {
			year = now.Year()
		}
		resolved, ok := validDate(year, month, day, now.Location())
		if !ok {
			return nil
		}
		v := &model.DateValue{
			Day: day, Month: month, Year: year,
			Weekday:  resolved.Weekday().String(),
			Relative: relative, Ambiguous: ambiguous,
			Resolved: resolved,
		}
		c := &model.Candidate{
			Field: model.FieldDate, PatternType: g.name,
			Text: matched, Position: loc[0],
			Confidence: dateConfidence(g.weight, v, explicitYear, now),
			Date:       v,
		}
		return c
	}

	switch g.name {
	case "iso":
		y, _ := strconv.Atoi(sub(1))
		m, _ := strconv.Atoi(sub(2))
		d, _ := strconv.Atoi(sub(3))
		if c := mk(d, m, y, false, false, true); c != nil {
			return []model.Candidate{*c}
		}
	case "fullMonth", "abbrevMonth":
		m := monthNumber(sub(1))
		d, _ := strconv.Atoi(sub(2))
		y, _ := strconv.Atoi(sub(3))
		if c := mk(d, m, y, false, false, sub(3) != ""); c != nil {
			return []model.Candidate{*c}
		}
	case "dayFirst":
		d, _ := strconv.Atoi(sub(1))
		m := monthNumber(sub(2))
		y, _ := strconv.Atoi(sub(3))
		if c := mk(d, m, y, false, false, sub(3) != ""); c != nil {
			return []model.Candidate{*c}
		}
	case "numeric":
		a, _ := strconv.Atoi(sub(1))
		b, _ := strconv.Atoi(sub(2))
		y, _ := strconv.Atoi(sub(3))
		if y < 100 {
			y += 2000
		}
		monthFirst := mk(b, a, y, false, false, true)
		var dayFirst *model.Candidate
		if a != b {
			dayFirst = mk(a, b, y, false, false, true)
		}
		ambiguous := monthFirst != nil && dayFirst != nil
		var out []model.Candidate
		if monthFirst != nil {
			monthFirst.Date.Ambiguous = ambiguous
			out = append(out, *monthFirst)
		}
		if dayFirst != nil {
			dayFirst.Date.Ambiguous = ambiguous
			out = append(out, *dayFirst)
		}
		return out
	case "relative":
		target := now
		if strings.EqualFold(sub(1), "tomorrow") {
			target = now.AddDate(0, 0, 1)
		}
		if c := mk(target.Day(), int(target.Month()), target.Year(), true, false, true); c != nil {
			return []model.Candidate{*c}
		}
	case "relativeWeekday":
		wd, ok := weekdayIndex[strings.ToLower(sub(2))]
		if !ok {
			return nil
		}
		target := nextWeekday(now, wd)
		if strings.EqualFold(sub(1), "next") {
			target = target.AddDate(0, 0, 7)
		}
		if c := mk(target.Day(), int(target.Month()), target.Year(), true, false, true); c != nil {
			c.Date.Weekday = wd.String()
			return []model.Candidate{*c}
		}
	case "weekday":
		wd, ok := weekdayIndex[strings.ToLower(sub(1))]
		if !ok {
			return nil
		}
		target := nextWeekday(now, wd)
		if c := mk(target.Day(), int(target.Month()), target.Year(), true, false, true); c != nil {
			c.Date.Weekday = wd.String()
			return []model.Candidate{*c}
		}
	}
	return nil
}

// dateConfidence applies the extraction-time adjustments: explicit year bonus,
// near-future bonus, far-future and stale-past penalties.
func dateConfidence(base float64, v *model.DateValue, explicitYear bool, now time.Time) float64 {
	conf := base
	if explicitYear {
		conf += 0.05
	}
	diff := v.Resolved.Sub(now)
	switch {
	case diff > 2*365*24*time.Hour:
		conf -= 0.2
	case diff >= -24*time.Hour && diff <= 365*24*time.Hour:
		conf += 0.05
	case diff < -24*time.Hour:
		conf -= 0.15
	}
	return clamp01(conf)
}

// validDate builds the calendar instant and rejects normalized overflow
// (e.g. February 30 silently becoming March 2).
func validDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// nextWeekday returns the next occurrence of wd on or after today: today
// itself when the weekday matches, otherwise rolled forward up to six days.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, days)
}

func monthNumber(name string) int {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	return monthIndex[key]
}
