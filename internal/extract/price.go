package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/eventparse/internal/model"
)

var currencyCodes = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP",
}

// PriceExtractor finds admission prices: free-admission phrasings, ranges,
// bounded forms (starting at / up to), tiered and timing-qualified prices, and
// plain amounts.
type PriceExtractor struct {
	groups []patternGroup
}

// NewPriceExtractor compiles the price pattern table.
func NewPriceExtractor() *PriceExtractor {
	return &PriceExtractor{groups: []patternGroup{
		{name: "free", weight: 0.95, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(free\s+(?:admission|entry|entrance|show|event|concert)|admission\s+(?:is\s+)?free|no\s+(?:cover|charge|admission)(?:\s+charge)?|complimentary(?:\s+(?:admission|entry|tickets?))?|free)\b`),
		}},
		{name: "range", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`([$€£])(\d+(?:\.\d{2})?)\s*(?:-|–|to)\s*[$€£]?(\d+(?:\.\d{2})?)`),
		}},
		{name: "tiered", weight: 0.8, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([$€£])(\d+(?:\.\d{2})?)\s*(?:for\s+)?\(?(GA|general(?:\s+admission)?|VIP|premium|students?|seniors?|child(?:ren)?|kids?|adults?|members?)\)?`),
			regexp.MustCompile(`(?i)\b(GA|general(?:\s+admission)?|VIP|premium|students?|seniors?|child(?:ren)?|kids?|adults?|members?)\s*:?\s*([$€£])(\d+(?:\.\d{2})?)`),
		}},
		{name: "timing", weight: 0.8, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([$€£])(\d+(?:\.\d{2})?)\s*(?:in\s+)?\(?(advance|presale|at\s+the\s+door|door|day\s+of)\)?`),
			regexp.MustCompile(`(?i)\b(advance|presale|door)\s*:?\s*([$€£])(\d+(?:\.\d{2})?)`),
		}},
		{name: "startingAt", weight: 0.75, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:starting\s+at|from|tickets\s+from)\s+([$€£])(\d+(?:\.\d{2})?)`),
			regexp.MustCompile(`(?i)([$€£])(\d+(?:\.\d{2})?)\s*(?:\+|and\s+up)`),
		}},
		{name: "upTo", weight: 0.75, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)up\s+to\s+([$€£])(\d+(?:\.\d{2})?)`),
		}},
		{name: "single", weight: 0.7, patterns: []*regexp.Regexp{
			regexp.MustCompile(`([$€£])(\d+(?:\.\d{2})?)`),
			regexp.MustCompile(`(?i)\b(\d+(?:\.\d{2})?)\s+(dollars|euros|pounds)\b`),
		}},
	}}
}

func (e *PriceExtractor) Field() model.FieldType { return model.FieldPrice }

// Extract scans for price candidates. Free-admission matches always score at
// least 0.9; they are the least ambiguous price signal in event listings.
func (e *PriceExtractor) Extract(pt model.ProcessedText, _ *model.ParseContext) []model.Candidate {
	text := pt.Normalized

	var cands []model.Candidate
	for _, g := range e.groups {
		for pi, re := range g.patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				if c := e.parseMatch(g, pi, text, loc); c != nil {
					cands = append(cands, *c)
				}
			}
		}
	}
	return finish(cands)
}

func (e *PriceExtractor) parseMatch(g patternGroup, patternIdx int, text string, loc []int) *model.Candidate {
	matched := text[loc[0]:loc[1]]
	sub := func(i int) string {
		if 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	v := &model.PriceValue{Currency: "USD"}

	switch g.name {
	case "free":
		v.Free = true
		zero := 0.0
		v.Min, v.Max = &zero, &zero
	case "range":
		v.Currency = currencyCodes[sub(1)]
		lo, err1 := strconv.ParseFloat(sub(2), 64)
		hi, err2 := strconv.ParseFloat(sub(3), 64)
		if err1 != nil || err2 != nil || lo > hi {
			return nil
		}
		v.Min, v.Max = &lo, &hi
	case "tiered":
		var amountStr, tierStr string
		if patternIdx == 0 {
			v.Currency = currencyCodes[sub(1)]
			amountStr, tierStr = sub(2), sub(3)
		} else {
			tierStr = sub(1)
			v.Currency = currencyCodes[sub(2)]
			amountStr = sub(3)
		}
		amt, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil
		}
		v.Min, v.Max = &amt, &amt
		v.Tier = normalizeTier(tierStr)
	case "timing":
		var amountStr, timingStr string
		if patternIdx == 0 {
			v.Currency = currencyCodes[sub(1)]
			amountStr, timingStr = sub(2), sub(3)
		} else {
			timingStr = sub(1)
			v.Currency = currencyCodes[sub(2)]
			amountStr = sub(3)
		}
		amt, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil
		}
		v.Min, v.Max = &amt, &amt
		v.Timing = normalizeTiming(timingStr)
	case "startingAt":
		v.Currency = currencyCodes[sub(1)]
		amt, err := strconv.ParseFloat(sub(2), 64)
		if err != nil {
			return nil
		}
		v.Min = &amt
	case "upTo":
		v.Currency = currencyCodes[sub(1)]
		amt, err := strconv.ParseFloat(sub(2), 64)
		if err != nil {
			return nil
		}
		v.Max = &amt
	case "single":
		var amountStr string
		if patternIdx == 0 {
			v.Currency = currencyCodes[sub(1)]
			amountStr = sub(2)
		} else {
			amountStr = sub(1)
			switch strings.ToLower(sub(2)) {
			case "euros":
				v.Currency = "EUR"
			case "pounds":
				v.Currency = "GBP"
			}
		}
		amt, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil
		}
		v.Min, v.Max = &amt, &amt
	}

	c := &model.Candidate{
		Field: model.FieldPrice, PatternType: g.name,
		Text: matched, Position: loc[0],
		Confidence: priceConfidence(g.weight, v),
		Price:      v,
	}
	return c
}

// priceConfidence applies the extraction-time adjustments: plausible-amount
// bonus, implausible penalty, and the free-admission floor.
func priceConfidence(base float64, v *model.PriceValue) float64 {
	conf := base
	if v.Free {
		if conf < 0.9 {
			conf = 0.9
		}
		return clamp01(conf)
	}
	if v.Min != nil && v.Max != nil {
		spread := *v.Max - *v.Min
		if spread > 200 {
			conf -= 0.1
		}
	}
	for _, amt := range []*float64{v.Min, v.Max} {
		if amt == nil {
			continue
		}
		if *amt > 500 {
			conf -= 0.15
			break
		}
		if *amt > 0 && *amt <= 500 {
			conf += 0.05
			break
		}
	}
	return clamp01(conf)
}

func normalizeTier(s string) string {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "ga", "general", "general admission":
		return "general"
	case "vip", "premium":
		return "premium"
	case "student", "students", "senior", "seniors", "child", "children", "kid", "kids":
		return "student"
	case "adult", "adults":
		return "general"
	case "member", "members":
		return "member"
	}
	return strings.ToLower(s)
}

func normalizeTiming(s string) string {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "advance", "presale":
		return "advance"
	case "door", "at the door", "day of":
		return "door"
	}
	return strings.ToLower(s)
}
