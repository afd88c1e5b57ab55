// Package model defines the value types shared by the extraction pipeline:
// processed text, field candidates, parse results, and caller context.
package model

import (
	"fmt"
	"strings"
	"time"
)

// FieldType identifies one of the four extracted event fields.
type FieldType string

const (
	FieldDate  FieldType = "date"
	FieldTime  FieldType = "time"
	FieldPrice FieldType = "price"
	FieldVenue FieldType = "venue"
)

// AllFields lists the field types in scoring-weight order.
var AllFields = []FieldType{FieldDate, FieldTime, FieldPrice, FieldVenue}

// TimeKind classifies how a time candidate was phrased.
type TimeKind string

const (
	TimePlain       TimeKind = "plain"
	TimeDoors       TimeKind = "doors"
	TimeShow        TimeKind = "show"
	TimeRange       TimeKind = "range"
	TimeApproximate TimeKind = "approximate"
	TimeContextual  TimeKind = "contextual"
)

// VenueKind classifies how a venue candidate was recognized.
type VenueKind string

const (
	VenueExplicit  VenueKind = "venue"
	VenueAddress   VenueKind = "address"
	VenueLocation  VenueKind = "location"
	VenueKnown     VenueKind = "knownVenue"
	VenuePotential VenueKind = "potentialVenue"
)

// DateValue is the payload of a date candidate.
type DateValue struct {
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Weekday   string    `json:"day_of_week,omitempty"`
	Relative  bool      `json:"relative,omitempty"`
	Ambiguous bool      `json:"ambiguous,omitempty"`
	Resolved  time.Time `json:"resolved"`
}

// TimeValue is the payload of a time candidate. Hour is 0-23 after meridiem
// inference; ExplicitPeriod records whether AM/PM appeared in the text.
type TimeValue struct {
	Hour           int      `json:"hour"`
	Minute         int      `json:"minute"`
	Period         string   `json:"period,omitempty"`
	ExplicitPeriod bool     `json:"explicit_period,omitempty"`
	Kind           TimeKind `json:"kind"`
	EndHour        int      `json:"end_hour,omitempty"`
	EndMinute      int      `json:"end_minute,omitempty"`
	HasEnd         bool     `json:"has_end,omitempty"`
}

// PriceValue is the payload of a price candidate. Min and Max may each be nil
// independently, representing open-ended "starting at" / "up to" pricing.
type PriceValue struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency"`
	Free     bool     `json:"is_free"`
	Tier     string   `json:"tier,omitempty"`
	Timing   string   `json:"timing,omitempty"`
}

// VenueValue is the payload of a venue candidate.
type VenueValue struct {
	Name     string      `json:"name"`
	Kind     VenueKind   `json:"kind"`
	KnownRef *KnownVenue `json:"known_venue,omitempty"`
}

// ScoringTrace records the multiplicative factors the scorer applied to a
// candidate. Advisory only; nothing downstream depends on it.
type ScoringTrace struct {
	PatternWeight   float64 `json:"pattern_weight"`
	ValidationScore float64 `json:"validation_score"`
	QualityFactor   float64 `json:"quality_factor"`
	PositionFactor  float64 `json:"position_factor"`
}

// Candidate is one parsed occurrence of a field value, prior to resolution.
// Exactly one of the payload pointers matching Field is set.
type Candidate struct {
	Field       FieldType     `json:"field"`
	PatternType string        `json:"pattern_type"`
	Text        string        `json:"text"`
	Position    int           `json:"position"`
	Confidence  float64       `json:"confidence"`
	Trace       *ScoringTrace `json:"trace,omitempty"`

	Date  *DateValue  `json:"date,omitempty"`
	Time  *TimeValue  `json:"time,omitempty"`
	Price *PriceValue `json:"price,omitempty"`
	Venue *VenueValue `json:"venue,omitempty"`
}

// ClampConfidence forces Confidence back into [0, 1].
func (c *Candidate) ClampConfidence() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// Key returns the field-specific semantic identity used for deduplication.
// Two candidates with the same key describe the same value.
func (c *Candidate) Key() string {
	switch c.Field {
	case FieldDate:
		if c.Date == nil {
			return ""
		}
		return fmt.Sprintf("%04d-%02d-%02d", c.Date.Year, c.Date.Month, c.Date.Day)
	case FieldTime:
		if c.Time == nil {
			return ""
		}
		return fmt.Sprintf("%02d:%02d:%s", c.Time.Hour, c.Time.Minute, c.Time.Kind)
	case FieldPrice:
		if c.Price == nil {
			return ""
		}
		return fmt.Sprintf("%t:%s:%s:%s:%s",
			c.Price.Free, floatKey(c.Price.Min), floatKey(c.Price.Max),
			c.Price.Tier, c.Price.Timing)
	case FieldVenue:
		if c.Venue == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(c.Venue.Name)) + ":" + string(c.Venue.Kind)
	}
	return ""
}

// Completeness is the secondary sort key after confidence: candidates carrying
// more of their payload order first on confidence ties.
func (c *Candidate) Completeness() int {
	n := 0
	switch c.Field {
	case FieldDate:
		if c.Date != nil {
			if c.Date.Year > 0 {
				n++
			}
			if c.Date.Weekday != "" {
				n++
			}
		}
	case FieldTime:
		if c.Time != nil {
			if c.Time.ExplicitPeriod {
				n++
			}
			if c.Time.HasEnd {
				n++
			}
		}
	case FieldPrice:
		if c.Price != nil {
			if c.Price.Min != nil {
				n++
			}
			if c.Price.Max != nil {
				n++
			}
			if c.Price.Tier != "" {
				n++
			}
			if c.Price.Timing != "" {
				n++
			}
		}
	case FieldVenue:
		if c.Venue != nil && c.Venue.KnownRef != nil {
			n++
		}
	}
	return n
}

func floatKey(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *f)
}
