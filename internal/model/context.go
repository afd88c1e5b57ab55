package model

import "time"

// KnownVenue is one entry from the caller-supplied venue list.
type KnownVenue struct {
	Name     string `json:"name" yaml:"name"`
	City     string `json:"city,omitempty" yaml:"city,omitempty"`
	Capacity int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// ParseContext carries optional caller signals into a parse. The zero value
// is valid: every field has a documented default. Unknown signals simply do
// not exist here; callers with extra metadata drop it before the call.
type ParseContext struct {
	// Now anchors relative dates ("tomorrow", "next Friday") and past/future
	// scoring. Zero means the orchestrator captures time.Now() once per call.
	Now time.Time `json:"-"`

	// KnownVenues enables fuzzy venue matching when non-empty.
	KnownVenues []KnownVenue `json:"known_venues,omitempty"`

	// VenueCapacity, when >0, feeds the price/venue consistency rules.
	VenueCapacity int `json:"venue_capacity,omitempty"`

	// ExpectedLocation boosts venue candidates mentioning it.
	ExpectedLocation string `json:"expected_location,omitempty"`

	// RecurringEvent boosts weekday-bearing date candidates.
	RecurringEvent bool `json:"is_recurring_event,omitempty"`

	// EventType ("concert", "theater", "workshop", ...) drives event-type
	// consistency scoring. Empty disables that pass.
	EventType string `json:"event_type,omitempty"`

	// HistoricalAccuracy in [0,1] scales all confidences uniformly.
	// Zero means no scaling (treated as 1.0).
	HistoricalAccuracy float64 `json:"historical_accuracy,omitempty"`
}

// EffectiveNow returns the injected clock, or now if none was set.
func (c *ParseContext) EffectiveNow() time.Time {
	if c == nil || c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// AccuracyScale returns HistoricalAccuracy clamped to (0,1], defaulting to 1.
func (c *ParseContext) AccuracyScale() float64 {
	if c == nil || c.HistoricalAccuracy <= 0 {
		return 1
	}
	if c.HistoricalAccuracy > 1 {
		return 1
	}
	return c.HistoricalAccuracy
}
