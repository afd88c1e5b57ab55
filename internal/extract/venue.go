package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/eventparse/internal/model"
)

const venueNouns = `Hall|Theater|Theatre|Club|Arena|Stadium|Center|Centre|Lounge|Ballroom|Pavilion|Auditorium|Amphitheater|Garden|Gardens|House|Room|Bar|Cafe|Tavern|Venue|Gallery|Museum|Park|Plaza|Church|Cathedral`

// Capitalized-word runs that flank a venue name but belong to the listing, not
// the name ("at Blue Note Club Tickets $25", "Live At The Grand Theater").
var listingWords = map[string]bool{
	"tickets": true, "ticket": true, "doors": true, "show": true,
	"admission": true, "free": true, "tonight": true, "presents": true,
	"featuring": true, "with": true, "on": true, "at": true, "this": true,
	"starting": true, "from": true, "live": true,
}

// Names that are just a generic label, never an actual venue.
var genericNames = map[string]bool{
	"venue": true, "location": true, "place": true, "event": true,
	"show": true, "address": true,
}

var venueStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "with": true,
}

var priceShape = regexp.MustCompile(`^[$€£]?\d+(\.\d{2})?$`)

var titleCaser = cases.Title(language.English)

// VenueExtractor finds venue names and addresses: names carrying a venue noun,
// capitalized runs after "at", street addresses, and location-prefixed
// phrases. Extracted names are matched against the known-venue list from the
// parse context, exactly first and then by edit-distance similarity.
type VenueExtractor struct {
	groups []patternGroup
}

// NewVenueExtractor compiles the venue pattern table.
func NewVenueExtractor() *VenueExtractor {
	return &VenueExtractor{groups: []patternGroup{
		{name: "venueSuffix", weight: 0.85, patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b((?:[A-Z][A-Za-z'&.-]*\s+){1,4}(?i:` + venueNouns + `))\b`),
		}},
		{name: "atVenue", weight: 0.8, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?:(?i:\bat)|@)\s+((?:[A-Z][A-Za-z'&.-]*|the|of)(?:\s+(?:[A-Z][A-Za-z'&.-]*|the|of)){0,5})`),
		}},
		{name: "address", weight: 0.75, patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{1,5}\s+(?:[A-Z][A-Za-z.]*\s+){1,3}(?:St|Street|Ave|Avenue|Blvd|Boulevard|Rd|Road|Dr|Drive|Ln|Lane|Way|Hwy|Highway)\.?)`),
		}},
		{name: "location", weight: 0.6, patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:venue|location|where)\s*:?\s+((?:[A-Za-z'&.-]+\s*){1,6})`),
		}},
	}}
}

func (e *VenueExtractor) Field() model.FieldType { return model.FieldVenue }

// Extract scans for venue candidates.
func (e *VenueExtractor) Extract(pt model.ProcessedText, ctx *model.ParseContext) []model.Candidate {
	text := pt.Normalized

	var cands []model.Candidate
	for _, g := range e.groups {
		for _, re := range g.patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				if c := e.parseMatch(g, text, loc, ctx); c != nil {
					cands = append(cands, *c)
				}
			}
		}
	}
	return finish(cands)
}

func (e *VenueExtractor) parseMatch(g patternGroup, text string, loc []int, ctx *model.ParseContext) *model.Candidate {
	if loc[2] < 0 {
		return nil
	}
	name := strings.TrimSpace(text[loc[2]:loc[3]])
	name = trimListingWords(name)
	name = strings.Trim(name, " .,;:-")
	if !plausibleVenueName(name) {
		return nil
	}
	if name == strings.ToUpper(name) && len(name) > 3 {
		name = titleCaser.String(strings.ToLower(name))
	}

	v := &model.VenueValue{Name: name, Kind: model.VenueExplicit}
	switch g.name {
	case "address":
		v.Kind = model.VenueAddress
	case "location":
		v.Kind = model.VenueLocation
	case "atVenue":
		v.Kind = model.VenuePotential
	}

	conf := g.weight
	if known := matchKnownVenue(name, ctx); known != nil {
		v.Kind = model.VenueKnown
		v.KnownRef = known
		if conf < 0.95 {
			conf = 0.95
		}
	} else {
		if strings.Count(name, " ") >= 1 {
			conf += 0.05
		}
		if g.name == "venueSuffix" {
			conf += 0.05
		}
	}

	return &model.Candidate{
		Field: model.FieldVenue, PatternType: g.name,
		Text: text[loc[0]:loc[1]], Position: loc[0],
		Confidence: clamp01(conf),
		Venue:      v,
	}
}

// trimListingWords drops leading and trailing tokens that belong to the
// surrounding listing rather than the venue name ("Live At", "Tickets").
func trimListingWords(name string) string {
	words := strings.Fields(name)
	for len(words) > 1 && listingWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 1 && listingWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// plausibleVenueName rejects extraction noise: bare numbers, stopword-heavy
// phrases, price shapes, and calendar words captured by the broad patterns.
func plausibleVenueName(name string) bool {
	if len(name) < 2 || len(name) > 100 {
		return false
	}
	if _, err := strconv.Atoi(name); err == nil {
		return false
	}
	if priceShape.MatchString(name) {
		return false
	}
	lower := strings.ToLower(name)
	if genericNames[lower] {
		return false
	}
	if _, isMonth := monthIndex[abbrev3(lower)]; isMonth && len(strings.Fields(name)) == 1 {
		return false
	}
	if _, isWeekday := weekdayIndex[lower]; isWeekday {
		return false
	}
	words := strings.Fields(lower)
	stop := 0
	for _, w := range words {
		if venueStopwords[w] {
			stop++
		}
	}
	return stop*2 <= len(words)
}

func abbrev3(s string) string {
	if len(s) > 3 {
		return s[:3]
	}
	return s
}

// matchKnownVenue finds the best known-venue match: substring containment in
// either direction, then edit-distance similarity at or above 0.75.
func matchKnownVenue(name string, ctx *model.ParseContext) *model.KnownVenue {
	if ctx == nil || len(ctx.KnownVenues) == 0 {
		return nil
	}
	lower := strings.ToLower(name)
	var best *model.KnownVenue
	bestScore := 0.0
	for i := range ctx.KnownVenues {
		kv := &ctx.KnownVenues[i]
		kvLower := strings.ToLower(kv.Name)
		score := 0.0
		if lower == kvLower {
			score = 1.0
		} else if strings.Contains(kvLower, lower) || strings.Contains(lower, kvLower) {
			score = 0.95
		} else {
			score = levenshtein.Similarity(lower, kvLower, nil)
		}
		if score >= 0.75 && score > bestScore {
			best, bestScore = kv, score
		}
	}
	return best
}
