// Package textproc cleans and normalizes raw event text before extraction.
// Input arrives from HTML scraping or OCR and ranges from clean markup text to
// heavily garbled recognition output; Preprocess never fails, it only degrades
// the quality score.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/eventparse/internal/model"
)

// Processor normalizes raw text and scores its quality. All tables are built
// once at construction and read-only afterwards, so a single Processor is safe
// for concurrent use.
type Processor struct {
	wordSubs    map[string]string
	contextSubs []contextRule
}

// New creates a Processor with the default correction tables.
func New() *Processor {
	return &Processor{
		wordSubs:    defaultWordSubstitutions(),
		contextSubs: defaultContextRules(),
	}
}

// Preprocess runs the full normalization pipeline. Empty input yields a
// ProcessedText with quality 0 and the empty_text issue; no error paths exist.
func (p *Processor) Preprocess(text string) model.ProcessedText {
	pt := model.ProcessedText{Original: text}

	if strings.TrimSpace(text) == "" {
		pt.AddIssue(model.IssueEmptyText)
		return pt
	}

	cleaned := p.clean(text)
	cleaned, corrections := p.applyCorrections(cleaned)
	pt.Cleaned = cleaned
	pt.Corrections = corrections

	pt.Normalized = p.normalizeCase(cleaned)
	pt.Quality = scoreQuality(pt.Normalized, text)

	if LooksGarbled(text) {
		pt.AddIssue(model.IssuePoorOCRQuality)
	}
	return pt
}

// clean collapses whitespace, strips characters outside the printable
// allow-list, and tightens spacing around punctuation and currency/time
// separators so the extractor patterns see canonical shapes.
func (p *Processor) clean(text string) string {
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if allowedRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	s := b.String()

	s = strings.Join(strings.Fields(s), " ")

	// "$ 35" -> "$35", "8 : 30" -> "8:30", "8 : 30 : 00" handled by repetition.
	s = strings.ReplaceAll(s, "$ ", "$")
	for strings.Contains(s, " :") || strings.Contains(s, ": ") {
		next := strings.ReplaceAll(s, " :", ":")
		next = replaceDigitColonSpace(next)
		if next == s {
			break
		}
		s = next
	}
	// No space before terminal punctuation.
	for _, punct := range []string{" ,", " .", " !", " ?"} {
		s = strings.ReplaceAll(s, punct, punct[1:])
	}
	return s
}

// replaceDigitColonSpace removes the space in "8: 30" but leaves prose colons
// ("Doors: open") alone.
func replaceDigitColonSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == ' ' && i >= 2 && rs[i-1] == ':' && unicode.IsDigit(rs[i-2]) &&
			i+1 < len(rs) && unicode.IsDigit(rs[i+1]) {
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

func allowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '$', '€', '£', '.', ',', ':', ';', '-', '–', '/', '@', '&', '#',
		'\'', '"', '(', ')', '!', '?', '+', '~', '%':
		return true
	}
	return false
}

// normalizeCase canonicalizes meridiem tokens and common month and address
// abbreviations without touching the rest of the text.
func (p *Processor) normalizeCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		trimmed := strings.TrimRight(w, ".,!?")
		suffix := w[len(trimmed):]
		switch strings.ToLower(strings.ReplaceAll(trimmed, ".", "")) {
		case "am":
			words[i] = "AM" + suffix
		case "pm":
			words[i] = "PM" + suffix
		default:
			if canon, ok := monthAbbrevs[strings.ToLower(trimmed)]; ok {
				words[i] = canon + suffix
			} else if canon, ok := addressAbbrevs[strings.ToLower(trimmed)]; ok {
				words[i] = canon + suffix
			}
		}
	}
	return strings.Join(words, " ")
}

var monthAbbrevs = map[string]string{
	"jan": "Jan", "feb": "Feb", "mar": "Mar", "apr": "Apr", "may": "May",
	"jun": "Jun", "jul": "Jul", "aug": "Aug", "sep": "Sep", "sept": "Sept",
	"oct": "Oct", "nov": "Nov", "dec": "Dec",
	"january": "January", "february": "February", "march": "March",
	"april": "April", "june": "June", "july": "July", "august": "August",
	"september": "September", "october": "October", "november": "November",
	"december": "December",
}

var addressAbbrevs = map[string]string{
	"st": "St", "ave": "Ave", "blvd": "Blvd", "rd": "Rd", "dr": "Dr",
	"ln": "Ln", "hwy": "Hwy",
}
