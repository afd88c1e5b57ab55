package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventparse/internal/model"
)

func TestPreprocessEmptyInput(t *testing.T) {
	p := New()
	for _, text := range []string{"", "   ", "\n\t  "} {
		pt := p.Preprocess(text)
		assert.Equal(t, 0.0, pt.Quality)
		assert.True(t, pt.HasIssue(model.IssueEmptyText))
		assert.Empty(t, pt.Normalized)
	}
}

func TestPreprocessCollapsesWhitespace(t *testing.T) {
	pt := New().Preprocess("Jazz   Concert \n\n  March 15")
	assert.Equal(t, "Jazz Concert March 15", pt.Normalized)
}

func TestPreprocessTightensCurrencyAndColons(t *testing.T) {
	p := New()

	pt := p.Preprocess("Tickets $ 35")
	assert.Contains(t, pt.Normalized, "$35")

	pt = p.Preprocess("Doors 7 : 30 PM")
	assert.Contains(t, pt.Normalized, "7:30")
}

func TestPreprocessStripsControlCharacters(t *testing.T) {
	pt := New().Preprocess("Show\x00 at\x07 8PM")
	assert.NotContains(t, pt.Normalized, "\x00")
	assert.Contains(t, pt.Normalized, "8PM")
}

func TestPreprocessNormalizesMeridiem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Doors at 7 pm", "PM"},
		{"Doors at 7 p.m.", "PM"},
		{"Opens 9 am", "AM"},
	}
	for _, tt := range tests {
		pt := New().Preprocess(tt.in)
		assert.Contains(t, pt.Normalized, tt.want, tt.in)
	}
}

func TestOCRWordSubstitutions(t *testing.T) {
	p := New()

	pt := p.Preprocess("FR33 ADMISSION T1CKETS at the D00RS")
	assert.Contains(t, pt.Normalized, "FREE")
	assert.Contains(t, pt.Normalized, "TICKETS")
	assert.Contains(t, pt.Normalized, "DOORS")
	assert.NotEmpty(t, pt.Corrections)
}

func TestOCRContextCorrections(t *testing.T) {
	p := New()

	t.Run("mangled time separator", func(t *testing.T) {
		pt := p.Preprocess("Show 8I15 PM")
		assert.Contains(t, pt.Normalized, "8:15")
	})
	t.Run("oh for zero in price", func(t *testing.T) {
		pt := p.Preprocess("Cover $3O")
		assert.Contains(t, pt.Normalized, "$30")
	})
	t.Run("el for one in price", func(t *testing.T) {
		pt := p.Preprocess("Tickets $l5")
		assert.Contains(t, pt.Normalized, "$15")
	})
	t.Run("letters outside shapes untouched", func(t *testing.T) {
		pt := p.Preprocess("Olive Oil Tasting")
		assert.Contains(t, pt.Normalized, "Olive Oil")
	})
}

func TestCorrectionsAreRecorded(t *testing.T) {
	pt := New().Preprocess("FR33 show, cover $3O")
	require.NotEmpty(t, pt.Corrections)

	kinds := map[string]bool{}
	for _, c := range pt.Corrections {
		kinds[c.Kind] = true
	}
	assert.True(t, kinds["word_substitution"])
	assert.True(t, kinds["digit_oh"])
}

func TestQualityOrdering(t *testing.T) {
	p := New()

	clean := p.Preprocess("Jazz Concert on March 15, 2026 at 8:00 PM, tickets $35")
	garbled := p.Preprocess("J4zz C0nc3rt 0n M4rch l5 ||| 8:OO PM t1ck3ts")

	assert.Greater(t, clean.Quality, garbled.Quality)
	assert.GreaterOrEqual(t, clean.Quality, 0.7)
}

func TestQualityBounds(t *testing.T) {
	p := New()
	texts := []string{
		"x", "Jazz Concert March 15 8PM $35", "|||||| l1l1l1 O0O0O0",
		"plain words with no event content at all",
	}
	for _, text := range texts {
		pt := p.Preprocess(text)
		assert.GreaterOrEqual(t, pt.Quality, 0.1, text)
		assert.LessOrEqual(t, pt.Quality, 1.0, text)
	}
}

func TestLooksGarbled(t *testing.T) {
	assert.True(t, LooksGarbled("J4zz ||| C0nc3rt l5th 8:OO"))
	assert.False(t, LooksGarbled("Jazz Concert March 15th at 8:00 PM"))
}

func TestPreprocessFlagsGarbledInput(t *testing.T) {
	pt := New().Preprocess("T0n1ght ||| D00r5 0p3n @ 7 |||")
	assert.True(t, pt.HasIssue(model.IssuePoorOCRQuality))
}

func TestPreprocessIsDeterministic(t *testing.T) {
	p := New()
	text := "FR33 Jazz t0night at 8I15 PM, D00RS 7"
	first := p.Preprocess(text)
	for i := 0; i < 5; i++ {
		again := p.Preprocess(text)
		assert.Equal(t, first.Normalized, again.Normalized)
		assert.Equal(t, first.Quality, again.Quality)
	}
}
