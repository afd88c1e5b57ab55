package model

import "time"

// ParseSource identifies which layer produced the input text.
const (
	SourceScrape = "scrape"
	SourceOCR    = "ocr"
	SourceManual = "manual"
)

// ParseRecord is one persisted parse outcome. Confidence duplicates
// Result.OverallConfidence as a plain column so stores can filter on it.
type ParseRecord struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Input      string      `json:"input"`
	Result     ParseResult `json:"result"`
	Confidence float64     `json:"confidence"`
	CreatedAt  time.Time   `json:"created_at"`
}
