package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventparse/internal/extract"
	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/textproc"
)

// Monday, January 5 2026.
var testNow = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

func scoreText(t *testing.T, text string, ctx *model.ParseContext) (map[model.FieldType][]model.Candidate, map[model.FieldType][]model.Candidate) {
	t.Helper()
	if ctx == nil {
		ctx = &model.ParseContext{Now: testNow}
	}
	pt := textproc.New().Preprocess(text)
	raw := map[model.FieldType][]model.Candidate{
		model.FieldDate:  extract.NewDateExtractor().Extract(pt, ctx),
		model.FieldTime:  extract.NewTimeExtractor().Extract(pt, ctx),
		model.FieldPrice: extract.NewPriceExtractor().Extract(pt, ctx),
		model.FieldVenue: extract.NewVenueExtractor().Extract(pt, ctx),
	}
	scored := New(DefaultConfig()).Score(raw, pt, ctx)
	return raw, scored
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	raw, _ := scoreText(t, "Jazz Concert March 15, 2026 at 8:00 PM, tickets $35", nil)

	for field, cands := range raw {
		for _, c := range cands {
			assert.Nil(t, c.Trace, "input candidate gained a trace: %s", field)
		}
	}
}

func TestScoreAttachesTraces(t *testing.T) {
	_, scored := scoreText(t, "Jazz Concert March 15, 2026 at 8:00 PM, tickets $35", nil)

	total := 0
	for _, cands := range scored {
		for _, c := range cands {
			require.NotNil(t, c.Trace)
			assert.Greater(t, c.Trace.PatternWeight, 0.0)
			assert.GreaterOrEqual(t, c.Trace.ValidationScore, 0.1)
			assert.LessOrEqual(t, c.Trace.ValidationScore, 1.5)
			total++
		}
	}
	assert.Greater(t, total, 0)
}

func TestScoreRangeInvariant(t *testing.T) {
	texts := []string{
		"Jazz Concert March 15 8PM $35 at Blue Note Club",
		"FR33 5HOW t0night ||| D00RS 7",
		"plain text with nothing in it",
	}
	for _, text := range texts {
		_, scored := scoreText(t, text, nil)
		for _, cands := range scored {
			for _, c := range cands {
				assert.GreaterOrEqual(t, c.Confidence, 0.0, text)
				assert.LessOrEqual(t, c.Confidence, 1.0, text)
			}
		}
	}
}

func TestDoorsBeforeShowOrdering(t *testing.T) {
	_, valid := scoreText(t, "Doors 7PM Show 8PM", nil)
	_, inverted := scoreText(t, "Doors 9PM Show 8PM", nil)

	pick := func(m map[model.FieldType][]model.Candidate, kind model.TimeKind) *model.Candidate {
		return bestOfKind(m[model.FieldTime], kind)
	}

	validDoors, validShow := pick(valid, model.TimeDoors), pick(valid, model.TimeShow)
	invDoors, invShow := pick(inverted, model.TimeDoors), pick(inverted, model.TimeShow)
	require.NotNil(t, validDoors)
	require.NotNil(t, validShow)
	require.NotNil(t, invDoors)
	require.NotNil(t, invShow)

	assert.Greater(t, validDoors.Confidence, invDoors.Confidence)
	assert.Greater(t, validShow.Confidence, invShow.Confidence)
}

func TestFreePriceFloorSurvivesScoring(t *testing.T) {
	_, scored := scoreText(t, "FREE admission tonight", &model.ParseContext{
		Now:                testNow,
		HistoricalAccuracy: 0.5,
	})

	prices := scored[model.FieldPrice]
	require.NotEmpty(t, prices)
	assert.True(t, prices[0].Price.Free)
	assert.GreaterOrEqual(t, prices[0].Confidence, 0.9)
}

func TestValidationPenalizesAmbiguousDate(t *testing.T) {
	_, scored := scoreText(t, "Event on 03/04/2026", nil)
	dates := scored[model.FieldDate]
	require.Len(t, dates, 2)

	for _, c := range dates {
		require.NotNil(t, c.Trace)
		assert.Less(t, c.Trace.ValidationScore, 1.2)
	}
}

func TestKnownVenueContextBonus(t *testing.T) {
	text := "Jazz night at Blue Note Club"
	plain := &model.ParseContext{Now: testNow}
	withKnown := &model.ParseContext{
		Now:         testNow,
		KnownVenues: []model.KnownVenue{{Name: "Blue Note Club", City: "Portland"}},
	}

	_, unscored := scoreText(t, text, plain)
	_, known := scoreText(t, text, withKnown)

	require.NotEmpty(t, unscored[model.FieldVenue])
	require.NotEmpty(t, known[model.FieldVenue])
	assert.GreaterOrEqual(t,
		known[model.FieldVenue][0].Confidence,
		unscored[model.FieldVenue][0].Confidence)
	assert.NotNil(t, known[model.FieldVenue][0].Venue.KnownRef)
}

func TestHistoricalAccuracyScalesUniformly(t *testing.T) {
	text := "Concert March 15, 2026 at 8PM, $25 at the Grand Hall"
	full := &model.ParseContext{Now: testNow}
	half := &model.ParseContext{Now: testNow, HistoricalAccuracy: 0.5}

	_, base := scoreText(t, text, full)
	_, scaled := scoreText(t, text, half)

	for _, field := range model.AllFields {
		if len(base[field]) == 0 {
			continue
		}
		require.Equal(t, len(base[field]), len(scaled[field]), field)
		for i := range base[field] {
			if base[field][i].Price != nil && base[field][i].Price.Free {
				continue
			}
			assert.LessOrEqual(t, scaled[field][i].Confidence, base[field][i].Confidence)
		}
	}
}

func TestMuseumFreeBonus(t *testing.T) {
	_, scored := scoreText(t, "Free admission at the City Museum", nil)
	prices := scored[model.FieldPrice]
	venues := scored[model.FieldVenue]
	require.NotEmpty(t, prices)
	require.NotEmpty(t, venues)
	assert.True(t, prices[0].Price.Free)
	assert.GreaterOrEqual(t, prices[0].Confidence, 0.9)
}

func TestEventTypeBiasConcert(t *testing.T) {
	text := "Live music Saturday at 8PM, tickets $30"
	plain := &model.ParseContext{Now: testNow}
	concert := &model.ParseContext{Now: testNow, EventType: "concert"}

	_, base := scoreText(t, text, plain)
	_, biased := scoreText(t, text, concert)

	baseTop := best(base[model.FieldTime])
	biasedTop := best(biased[model.FieldTime])
	require.NotNil(t, baseTop)
	require.NotNil(t, biasedTop)
	assert.GreaterOrEqual(t, biasedTop.Confidence, baseTop.Confidence)
}
