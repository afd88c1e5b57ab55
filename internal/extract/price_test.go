package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/textproc"
)

func extractPrices(t *testing.T, text string) []model.Candidate {
	t.Helper()
	pt := textproc.New().Preprocess(text)
	return NewPriceExtractor().Extract(pt, &model.ParseContext{Now: testNow})
}

func TestPriceExtractorFree(t *testing.T) {
	tests := []string{
		"Free admission",
		"Admission is free",
		"No cover charge",
		"FREE show tonight",
		"Complimentary admission",
		"complimentary tickets for members",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			cands := extractPrices(t, text)
			require.NotEmpty(t, cands)

			p := cands[0].Price
			assert.True(t, p.Free)
			assert.GreaterOrEqual(t, cands[0].Confidence, 0.9)
		})
	}
}

func TestPriceExtractorSingle(t *testing.T) {
	cands := extractPrices(t, "Tickets $25")
	require.NotEmpty(t, cands)

	p := cands[0].Price
	require.NotNil(t, p.Min)
	require.NotNil(t, p.Max)
	assert.Equal(t, 25.0, *p.Min)
	assert.Equal(t, 25.0, *p.Max)
	assert.Equal(t, "USD", p.Currency)
	assert.False(t, p.Free)
}

func TestPriceExtractorRange(t *testing.T) {
	cands := extractPrices(t, "Tickets $20-$30")
	require.NotEmpty(t, cands)

	p := cands[0].Price
	assert.Equal(t, "range", cands[0].PatternType)
	require.NotNil(t, p.Min)
	require.NotNil(t, p.Max)
	assert.Equal(t, 20.0, *p.Min)
	assert.Equal(t, 30.0, *p.Max)
}

func TestPriceExtractorInvertedRangeDropped(t *testing.T) {
	cands := extractPrices(t, "Oddly priced $30-$20")
	for _, c := range cands {
		assert.NotEqual(t, "range", c.PatternType)
	}
}

func TestPriceExtractorBounds(t *testing.T) {
	t.Run("starting at", func(t *testing.T) {
		cands := extractPrices(t, "Tickets from $15")
		require.NotEmpty(t, cands)
		p := cands[0].Price
		require.NotNil(t, p.Min)
		assert.Equal(t, 15.0, *p.Min)
		assert.Nil(t, p.Max)
	})
	t.Run("up to", func(t *testing.T) {
		cands := extractPrices(t, "Seats up to $80")
		require.NotEmpty(t, cands)
		p := cands[0].Price
		require.NotNil(t, p.Max)
		assert.Equal(t, 80.0, *p.Max)
		assert.Nil(t, p.Min)
	})
}

func TestPriceExtractorTiers(t *testing.T) {
	cands := extractPrices(t, "$40 GA, $75 VIP, students $20")
	require.NotEmpty(t, cands)

	tiers := map[string]float64{}
	for _, c := range cands {
		if c.Price.Tier != "" && c.Price.Min != nil {
			tiers[c.Price.Tier] = *c.Price.Min
		}
	}
	assert.Equal(t, 40.0, tiers["general"])
	assert.Equal(t, 75.0, tiers["premium"])
	assert.Equal(t, 20.0, tiers["student"])
}

func TestPriceExtractorTiming(t *testing.T) {
	cands := extractPrices(t, "$30 advance, $35 at the door")
	require.NotEmpty(t, cands)

	timings := map[string]float64{}
	for _, c := range cands {
		if c.Price.Timing != "" && c.Price.Min != nil {
			timings[c.Price.Timing] = *c.Price.Min
		}
	}
	assert.Equal(t, 30.0, timings["advance"])
	assert.Equal(t, 35.0, timings["door"])
}

func TestPriceExtractorCurrencies(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Entry €18", "EUR"},
		{"Entry £12", "GBP"},
		{"Entry $12", "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cands := extractPrices(t, tt.text)
			require.NotEmpty(t, cands)
			assert.Equal(t, tt.want, cands[0].Price.Currency)
		})
	}
}

func TestPriceExtractorImplausibleAmountPenalized(t *testing.T) {
	cheap := extractPrices(t, "Tickets $45")
	wild := extractPrices(t, "Tickets $4500")
	require.NotEmpty(t, cheap)
	require.NotEmpty(t, wild)
	assert.Greater(t, cheap[0].Confidence, wild[0].Confidence)
}

func TestPriceExtractorConfidenceInRange(t *testing.T) {
	texts := []string{
		"Free admission", "$25", "$20-$30", "from $15", "$40 GA",
		"$30 advance", "$4500",
	}
	for _, text := range texts {
		for _, c := range extractPrices(t, text) {
			assert.GreaterOrEqual(t, c.Confidence, 0.0, text)
			assert.LessOrEqual(t, c.Confidence, 1.0, text)
		}
	}
}
