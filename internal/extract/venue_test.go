package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/textproc"
)

func extractVenues(t *testing.T, text string, known ...model.KnownVenue) []model.Candidate {
	t.Helper()
	pt := textproc.New().Preprocess(text)
	return NewVenueExtractor().Extract(pt, &model.ParseContext{Now: testNow, KnownVenues: known})
}

func TestVenueExtractorSuffixNoun(t *testing.T) {
	cands := extractVenues(t, "Tonight at the Blue Note Club, doors 7")
	require.NotEmpty(t, cands)

	assert.Equal(t, "Blue Note Club", cands[0].Venue.Name)
	assert.Equal(t, model.VenueExplicit, cands[0].Venue.Kind)
}

func TestVenueExtractorTrimsTrailingListingWords(t *testing.T) {
	cands := extractVenues(t, "Live at Crystal Ballroom Tickets $25")
	require.NotEmpty(t, cands)
	assert.Equal(t, "Crystal Ballroom", cands[0].Venue.Name)
}

func TestVenueExtractorAddress(t *testing.T) {
	cands := extractVenues(t, "Located at 123 Main St")
	var addr *model.Candidate
	for i := range cands {
		if cands[i].Venue.Kind == model.VenueAddress {
			addr = &cands[i]
		}
	}
	require.NotNil(t, addr)
	assert.Equal(t, "123 Main St", addr.Venue.Name)
}

func TestVenueExtractorLocationPrefix(t *testing.T) {
	cands := extractVenues(t, "Venue: Riverside Gardens")
	require.NotEmpty(t, cands)

	found := false
	for _, c := range cands {
		if c.Venue.Name == "Riverside Gardens" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestVenueExtractorKnownVenueExact(t *testing.T) {
	known := model.KnownVenue{Name: "Blue Note Club", City: "Portland", Capacity: 300}
	cands := extractVenues(t, "Jazz night at Blue Note Club", known)
	require.NotEmpty(t, cands)

	top := cands[0]
	assert.Equal(t, model.VenueKnown, top.Venue.Kind)
	require.NotNil(t, top.Venue.KnownRef)
	assert.Equal(t, "Portland", top.Venue.KnownRef.City)
	assert.GreaterOrEqual(t, top.Confidence, 0.9)
}

func TestVenueExtractorKnownVenueFuzzy(t *testing.T) {
	// OCR dropped a letter; edit-distance matching still resolves it.
	known := model.KnownVenue{Name: "Blue Note Club", City: "Portland"}
	cands := extractVenues(t, "Jazz night at Blue Noot Club", known)
	require.NotEmpty(t, cands)

	assert.Equal(t, model.VenueKnown, cands[0].Venue.Kind)
	require.NotNil(t, cands[0].Venue.KnownRef)
	assert.Equal(t, "Blue Note Club", cands[0].Venue.KnownRef.Name)
}

func TestVenueExtractorRejectsNoise(t *testing.T) {
	tests := []string{
		"Tickets at $25",
		"Meet at 8",
		"Show at 123",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			for _, c := range extractVenues(t, text) {
				assert.NotEqual(t, model.VenuePotential, c.Venue.Kind,
					"captured noise as venue: %q", c.Venue.Name)
			}
		})
	}
}

func TestVenueExtractorAllCapsRetitled(t *testing.T) {
	cands := extractVenues(t, "LIVE AT THE GRAND THEATER TONIGHT")
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.NotEqual(t, c.Venue.Name, "GRAND THEATER")
	}
}

func TestVenueExtractorConfidenceInRange(t *testing.T) {
	texts := []string{
		"at the Blue Note Club", "123 Main St", "Venue: Riverside Gardens",
		"at Crystal Ballroom Tickets",
	}
	for _, text := range texts {
		for _, c := range extractVenues(t, text) {
			assert.GreaterOrEqual(t, c.Confidence, 0.0, text)
			assert.LessOrEqual(t, c.Confidence, 1.0, text)
		}
	}
}
