package model

import "time"

// ResolvedResult holds at most one winning candidate per field. StartsAt is
// the calendar combination of date and time and exists only when both resolved.
type ResolvedResult struct {
	Date     *Candidate `json:"date,omitempty"`
	Time     *Candidate `json:"time,omitempty"`
	Price    *Candidate `json:"price,omitempty"`
	Venue    *Candidate `json:"venue,omitempty"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
}

// Get returns the resolved candidate for a field, or nil.
func (r *ResolvedResult) Get(f FieldType) *Candidate {
	switch f {
	case FieldDate:
		return r.Date
	case FieldTime:
		return r.Time
	case FieldPrice:
		return r.Price
	case FieldVenue:
		return r.Venue
	}
	return nil
}

// Set stores the resolved candidate for a field.
func (r *ResolvedResult) Set(f FieldType, c *Candidate) {
	switch f {
	case FieldDate:
		r.Date = c
	case FieldTime:
		r.Time = c
	case FieldPrice:
		r.Price = c
	case FieldVenue:
		r.Venue = c
	}
}

// ParseResult is the externally visible outcome of one parse call. It is a
// pure function of (text, context, configuration) and is never mutated after
// being returned.
type ParseResult struct {
	Success           bool                      `json:"success"`
	Data              ResolvedResult            `json:"data"`
	OverallConfidence float64                   `json:"overall_confidence"`
	Alternatives      map[FieldType][]Candidate `json:"alternatives,omitempty"`
	Issues            []IssueTag                `json:"issues,omitempty"`
}

// AddIssue appends tag unless already present.
func (p *ParseResult) AddIssue(tag IssueTag) {
	for _, t := range p.Issues {
		if t == tag {
			return
		}
	}
	p.Issues = append(p.Issues, tag)
}

// HasIssue reports whether tag was recorded on the result.
func (p *ParseResult) HasIssue(tag IssueTag) bool {
	for _, t := range p.Issues {
		if t == tag {
			return true
		}
	}
	return false
}

// Validation is the outcome of post-hoc sanity checks on a ParseResult.
type Validation struct {
	Valid    bool     `json:"is_valid"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
