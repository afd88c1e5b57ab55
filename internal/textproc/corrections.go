package textproc

import (
	"regexp"
	"strings"

	"github.com/sells-group/eventparse/internal/model"
)

// contextRule is a correction that only fires inside a recognizable shape,
// so an ambiguous character is repaired in "8I15 PM" but left alone in "WIFI".
type contextRule struct {
	kind    string
	pattern *regexp.Regexp
	replace string
}

func defaultContextRules() []contextRule {
	return []contextRule{
		// Digit-letter-digit time shapes: the middle glyph is a mangled colon.
		{
			kind:    "time_separator",
			pattern: regexp.MustCompile(`(?i)\b(\d{1,2})[IlB|;](\d{2})(\s*(?:AM|PM|A\.M\.|P\.M\.))\b`),
			replace: "$1:$2$3",
		},
		// O between digits is a zero ("3O" in "$3O", "1O:00").
		{
			kind:    "digit_oh",
			pattern: regexp.MustCompile(`(\d)[Oo](\d|\b)`),
			replace: "${1}0${2}",
		},
		{
			kind:    "oh_digit",
			pattern: regexp.MustCompile(`\b[Oo](\d)`),
			replace: "0${1}",
		},
		// l or I adjacent to digits inside a currency amount is a one.
		{
			kind:    "digit_el",
			pattern: regexp.MustCompile(`\$(\d*)[lI](\d+)`),
			replace: "$${1}1${2}",
		},
		{
			kind:    "el_digit",
			pattern: regexp.MustCompile(`\$[lI](\d*)`),
			replace: "$$1${1}",
		},
		// S read as 5 only when flanked by digits ("1S5" -> "155").
		{
			kind:    "digit_ess",
			pattern: regexp.MustCompile(`(\d)S(\d)`),
			replace: "${1}5${2}",
		},
	}
}

// defaultWordSubstitutions maps digit-substituted spellings of event words
// back to their intended form. Matching is exact per word, case-insensitive.
func defaultWordSubstitutions() map[string]string {
	return map[string]string{
		"T1CKETS":  "TICKETS",
		"TLCKETS":  "TICKETS",
		"T1CKET":   "TICKET",
		"FR33":     "FREE",
		"FRE3":     "FREE",
		"D00RS":    "DOORS",
		"DO0RS":    "DOORS",
		"D0ORS":    "DOORS",
		"5HOW":     "SHOW",
		"SH0W":     "SHOW",
		"C0NCERT":  "CONCERT",
		"C0VER":    "COVER",
		"PR1CE":    "PRICE",
		"VENU3":    "VENUE",
		"V3NUE":    "VENUE",
		"ADM1SSION": "ADMISSION",
		"8VENT":    "EVENT",
		"3VENT":    "EVENT",
		"EV3NT":    "EVENT",
	}
}

// applyCorrections runs the exact-word substitution table, then the
// context-gated pattern rules, recording every change it makes.
func (p *Processor) applyCorrections(s string) (string, []model.Correction) {
	var corrections []model.Correction

	words := strings.Split(s, " ")
	for i, w := range words {
		trimmed := strings.TrimRight(w, ".,!?:;")
		suffix := w[len(trimmed):]
		if sub, ok := p.wordSubs[strings.ToUpper(trimmed)]; ok {
			fixed := matchCase(trimmed, sub)
			corrections = append(corrections, model.Correction{
				Kind: "word_substitution", Original: trimmed, Replaced: fixed,
			})
			words[i] = fixed + suffix
		}
	}
	s = strings.Join(words, " ")

	for _, rule := range p.contextSubs {
		matches := rule.pattern.FindAllString(s, -1)
		if len(matches) == 0 {
			continue
		}
		fixed := rule.pattern.ReplaceAllString(s, rule.replace)
		if fixed != s {
			for _, m := range matches {
				corrections = append(corrections, model.Correction{
					Kind: rule.kind, Original: m,
					Replaced: rule.pattern.ReplaceAllString(m, rule.replace),
				})
			}
			s = fixed
		}
	}
	return s, corrections
}

// matchCase applies the casing of the original token to the replacement:
// all-caps stays all-caps, otherwise the replacement is lowercased with the
// original's leading-capital preserved.
func matchCase(original, replacement string) string {
	if original == strings.ToUpper(original) {
		return strings.ToUpper(replacement)
	}
	lower := strings.ToLower(replacement)
	if original != "" && original[0] >= 'A' && original[0] <= 'Z' {
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
	return lower
}
