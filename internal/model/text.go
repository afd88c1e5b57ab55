package model

// IssueTag labels a quality or completeness problem found during parsing.
// Issues are advisory: they never turn a parse into a hard failure on their own.
type IssueTag string

const (
	IssueEmptyText      IssueTag = "empty_text"
	IssueMissingDate    IssueTag = "missing_date"
	IssueMissingTime    IssueTag = "missing_time"
	IssueMissingVenue   IssueTag = "missing_venue"
	IssueLowConfidence  IssueTag = "low_confidence"
	IssuePoorOCRQuality IssueTag = "poor_ocr_quality"
	IssueParsingError   IssueTag = "parsing_error"
)

// Correction records one substitution the text processor applied.
type Correction struct {
	Kind     string `json:"kind"`
	Original string `json:"original"`
	Replaced string `json:"replaced"`
}

// ProcessedText is the normalized view of one raw input. It is created once
// per parse and treated as immutable by everything downstream.
type ProcessedText struct {
	Original    string       `json:"original"`
	Cleaned     string       `json:"cleaned"`
	Normalized  string       `json:"normalized"`
	Quality     float64      `json:"quality_score"`
	Issues      []IssueTag   `json:"issues,omitempty"`
	Corrections []Correction `json:"corrections,omitempty"`
}

// AddIssue appends tag unless it is already present.
func (p *ProcessedText) AddIssue(tag IssueTag) {
	for _, t := range p.Issues {
		if t == tag {
			return
		}
	}
	p.Issues = append(p.Issues, tag)
}

// HasIssue reports whether tag was recorded.
func (p *ProcessedText) HasIssue(tag IssueTag) bool {
	for _, t := range p.Issues {
		if t == tag {
			return true
		}
	}
	return false
}
