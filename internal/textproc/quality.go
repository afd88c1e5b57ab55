package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wellFormedShapes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(am|pm)?\b`),
		regexp.MustCompile(`[$€£]\d+(\.\d{2})?`),
		regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	}

	lookalikeRun   = regexp.MustCompile(`[Il1|]{3,}|[O0]{3,}`)
	nonStandardRun = regexp.MustCompile(`[^a-zA-Z0-9\s.,:$!?'()&@/-]{4,}`)
	excessiveWS    = regexp.MustCompile(`\s{4,}`)
	camelEmbed     = regexp.MustCompile(`[a-z][A-Z][a-z]`)

	garbleSignatures = []*regexp.Regexp{
		lookalikeRun,
		regexp.MustCompile(`[^\x20-\x7E\t\n\r]{3,}`),
		regexp.MustCompile("�"),
	}
)

// scoreQuality estimates how trustworthy the text is, on [0.1, 1.0]. The
// scorer uses it as a multiplicative factor, so a bad scan dampens field
// confidence but never zeroes it out.
func scoreQuality(normalized, original string) float64 {
	score := 1.0

	// Well-formed event shapes, up to +0.3.
	bonus := 0.0
	for _, re := range wellFormedShapes {
		if re.MatchString(normalized) {
			bonus += 0.075
		}
	}
	if bonus > 0.3 {
		bonus = 0.3
	}
	score += bonus

	// Ill-formed shapes, up to -0.4.
	penalty := 0.0
	if lookalikeRun.MatchString(normalized) {
		penalty += 0.15
	}
	if nonStandardRun.MatchString(original) {
		penalty += 0.1
	}
	if excessiveWS.MatchString(original) {
		penalty += 0.05
	}
	if hasShortWordRun(normalized) {
		penalty += 0.1
	}
	if penalty > 0.4 {
		penalty = 0.4
	}
	score -= penalty

	// Spacing defects, up to -0.3.
	defects := 0.0
	if n := letterDigitAdjacency(normalized); n > 0 {
		defects += 0.05 * float64(n)
	}
	if camelEmbed.MatchString(normalized) {
		defects += 0.05
	}
	if defects > 0.3 {
		defects = 0.3
	}
	score -= defects

	// Length penalties.
	if len(normalized) < 10 {
		score *= 0.7
	} else if len(normalized) > 1000 {
		score *= 0.85
	}

	// Character diversity: near-uniform text is usually scanner noise.
	if diversity(normalized) < 0.1 {
		score *= 0.7
	}

	// Real event text mixes digits, letters, and money or a clock time.
	if looksLikeEventText(normalized) {
		score *= 1.1
	}

	if score < 0.1 {
		score = 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// hasShortWordRun reports three or more consecutive words under 3 characters,
// a typical shape of shredded OCR output.
func hasShortWordRun(s string) bool {
	run := 0
	for _, w := range strings.Fields(s) {
		if len(w) < 3 && !isNumeric(w) {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// letterDigitAdjacency counts letters glued to digits, excluding legitimate
// shapes: ordinal suffixes (15th), meridiem markers (8PM), and 24h-ish tokens.
func letterDigitAdjacency(s string) int {
	count := 0
	rs := []rune(s)
	for i := 0; i < len(rs)-1; i++ {
		d, l := rs[i], rs[i+1]
		if !unicode.IsDigit(d) || !unicode.IsLetter(l) {
			continue
		}
		rest := strings.ToLower(string(rs[i+1:]))
		if strings.HasPrefix(rest, "st") || strings.HasPrefix(rest, "nd") ||
			strings.HasPrefix(rest, "rd") || strings.HasPrefix(rest, "th") ||
			strings.HasPrefix(rest, "am") || strings.HasPrefix(rest, "pm") {
			continue
		}
		count++
	}
	return count
}

func diversity(s string) float64 {
	if s == "" {
		return 0
	}
	seen := make(map[rune]struct{})
	n := 0
	for _, r := range s {
		seen[r] = struct{}{}
		n++
	}
	return float64(len(seen)) / float64(n)
}

func looksLikeEventText(s string) bool {
	hasDigit, hasLetter := false, false
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if !hasDigit || !hasLetter {
		return false
	}
	return strings.ContainsAny(s, "$€£") || wellFormedShapes[1].MatchString(s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LooksGarbled reports whether raw input matches any known garbling signature
// (repeated lookalike glyphs, non-ASCII runs, replacement characters). Used by
// the orchestrator to tag poor_ocr_quality on the final result.
func LooksGarbled(text string) bool {
	for _, re := range garbleSignatures {
		if re.MatchString(text) {
			return true
		}
	}
	// Heavily mixed digit-letter words also indicate a failed scan.
	mixed := 0
	for _, w := range strings.Fields(text) {
		if isMixedAlnum(w) {
			mixed++
			if mixed >= 3 {
				return true
			}
		}
	}
	return false
}

// isMixedAlnum reports digit/letter interleaving beyond normal tokens like
// "8PM" or "15th": at least two transitions between digit and letter runs.
func isMixedAlnum(w string) bool {
	transitions := 0
	prev := 0 // 1=digit 2=letter
	for _, r := range w {
		cur := 0
		if unicode.IsDigit(r) {
			cur = 1
		} else if unicode.IsLetter(r) {
			cur = 2
		}
		if cur != 0 && prev != 0 && cur != prev {
			transitions++
		}
		if cur != 0 {
			prev = cur
		}
	}
	return transitions >= 2
}
