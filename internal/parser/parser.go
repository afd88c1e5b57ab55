// Package parser is the orchestrator: it runs preprocess, the four
// extractors, scoring, filtering, and per-field resolution, and packages the
// outcome as a ParseResult. Parse never returns an error; every failure mode
// is expressed in the result value.
package parser

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/eventparse/internal/extract"
	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/scorer"
	"github.com/sells-group/eventparse/internal/textproc"
)

// Config holds the orchestrator knobs.
type Config struct {
	// MinConfidence drops scored candidates below this before resolution.
	MinConfidence float64

	// FieldWeights drive the overall-confidence aggregate. They are
	// renormalized over the fields that actually resolved.
	FieldWeights map[model.FieldType]float64
}

// DefaultConfig returns the production orchestrator settings.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.6,
		FieldWeights: map[model.FieldType]float64{
			model.FieldDate:  0.30,
			model.FieldTime:  0.25,
			model.FieldPrice: 0.20,
			model.FieldVenue: 0.25,
		},
	}
}

// Parser wires the pipeline together. Construct once with New and share; all
// members are read-only after construction.
type Parser struct {
	cfg        Config
	proc       *textproc.Processor
	extractors []extract.Extractor
	scorer     *scorer.Scorer
}

// New creates a Parser with default extractors and scoring tables.
func New(cfg Config) *Parser {
	return &Parser{
		cfg:  cfg,
		proc: textproc.New(),
		extractors: []extract.Extractor{
			extract.NewDateExtractor(),
			extract.NewTimeExtractor(),
			extract.NewPriceExtractor(),
			extract.NewVenueExtractor(),
		},
		scorer: scorer.New(scorer.DefaultConfig()),
	}
}

// Parse runs the full pipeline on one text. It never panics outward; any
// internal failure yields a success:false result tagged parsing_error.
func (p *Parser) Parse(text string, ctx *model.ParseContext) (result model.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("parse pipeline panic", zap.Any("panic", r))
			result = model.ParseResult{}
			result.AddIssue(model.IssueParsingError)
		}
	}()

	if ctx == nil {
		ctx = &model.ParseContext{}
	}
	if ctx.Now.IsZero() {
		// Pin one clock reading for the whole call.
		pinned := *ctx
		pinned.Now = time.Now()
		ctx = &pinned
	}

	pt := p.proc.Preprocess(text)
	if pt.HasIssue(model.IssueEmptyText) {
		result = model.ParseResult{}
		result.AddIssue(model.IssueEmptyText)
		return result
	}

	scored := p.scorer.Score(p.extractAll(pt, ctx), pt, ctx)
	surviving := p.filter(scored)

	result.Data = p.resolve(surviving)
	result.Alternatives = surviving
	p.combine(&result.Data)
	p.combinePriceVenue(&result.Data)

	result.OverallConfidence = p.aggregate(&result.Data)
	result.Success = result.Data.Date != nil || result.Data.Time != nil ||
		result.Data.Price != nil || result.Data.Venue != nil

	p.collectIssues(&result, pt)
	return result
}

// ParseField runs the pipeline for a single field and returns its scored,
// filtered candidate list. Unknown field types yield nil.
func (p *Parser) ParseField(text string, field model.FieldType, ctx *model.ParseContext) []model.Candidate {
	var ex extract.Extractor
	for _, e := range p.extractors {
		if e.Field() == field {
			ex = e
			break
		}
	}
	if ex == nil {
		return nil
	}

	if ctx == nil {
		ctx = &model.ParseContext{}
	}
	pt := p.proc.Preprocess(text)
	if pt.HasIssue(model.IssueEmptyText) {
		return nil
	}

	scored := p.scorer.Score(map[model.FieldType][]model.Candidate{
		field: ex.Extract(pt, ctx),
	}, pt, ctx)
	return p.filter(scored)[field]
}

func (p *Parser) extractAll(pt model.ProcessedText, ctx *model.ParseContext) map[model.FieldType][]model.Candidate {
	fields := make(map[model.FieldType][]model.Candidate, len(p.extractors))
	for _, ex := range p.extractors {
		fields[ex.Field()] = ex.Extract(pt, ctx)
	}
	return fields
}

// filter drops candidates below the configured confidence floor.
func (p *Parser) filter(fields map[model.FieldType][]model.Candidate) map[model.FieldType][]model.Candidate {
	out := make(map[model.FieldType][]model.Candidate, len(fields))
	for field, cands := range fields {
		var kept []model.Candidate
		for _, c := range cands {
			if c.Confidence >= p.cfg.MinConfidence {
				kept = append(kept, c)
			}
		}
		out[field] = kept
	}
	return out
}

// resolve picks the single best surviving candidate per field: highest
// confidence, then completeness, then earliest position.
func (p *Parser) resolve(fields map[model.FieldType][]model.Candidate) model.ResolvedResult {
	var res model.ResolvedResult
	for _, field := range model.AllFields {
		cands := fields[field]
		var win *model.Candidate
		for i := range cands {
			if win == nil || betterCandidate(&cands[i], win) {
				win = &cands[i]
			}
		}
		if win != nil {
			c := *win
			res.Set(field, &c)
		}
	}
	return res
}

func betterCandidate(a, b *model.Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Completeness() != b.Completeness() {
		return a.Completeness() > b.Completeness()
	}
	return a.Position < b.Position
}

// combine builds the calendar instant when both date and time resolved.
func (p *Parser) combine(res *model.ResolvedResult) {
	if res.Date == nil || res.Time == nil || res.Date.Date == nil || res.Time.Time == nil {
		return
	}
	d, tv := res.Date.Date, res.Time.Time
	starts := time.Date(d.Year, time.Month(d.Month), d.Day,
		tv.Hour, tv.Minute, 0, 0, d.Resolved.Location())
	res.StartsAt = &starts
}

// combinePriceVenue is the price/venue consistency hook at the resolution
// stage. The scorer already runs the full price/venue rule set over candidate
// lists; this stage-level hook is deliberately neutral.
func (p *Parser) combinePriceVenue(res *model.ResolvedResult) {
	_ = res
}

// aggregate computes the weighted overall confidence across resolved fields,
// renormalizing weights over the fields that are present.
func (p *Parser) aggregate(res *model.ResolvedResult) float64 {
	sum, weightSum := 0.0, 0.0
	for _, field := range model.AllFields {
		c := res.Get(field)
		if c == nil {
			continue
		}
		w := p.cfg.FieldWeights[field]
		sum += c.Confidence * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	agg := sum / weightSum
	if agg < 0 {
		agg = 0
	}
	if agg > 1 {
		agg = 1
	}
	return agg
}

func (p *Parser) collectIssues(result *model.ParseResult, pt model.ProcessedText) {
	if result.Data.Date == nil {
		result.AddIssue(model.IssueMissingDate)
	}
	if result.Data.Time == nil {
		result.AddIssue(model.IssueMissingTime)
	}
	if result.Data.Venue == nil {
		result.AddIssue(model.IssueMissingVenue)
	}
	if result.OverallConfidence < 0.7 {
		result.AddIssue(model.IssueLowConfidence)
	}
	if textproc.LooksGarbled(pt.Original) {
		result.AddIssue(model.IssuePoorOCRQuality)
	}
}

// Validate runs post-hoc sanity checks on a finished result. It never mutates
// the result.
func (p *Parser) Validate(result model.ParseResult) model.Validation {
	v := model.Validation{Valid: true}

	fail := func(format string, args ...any) {
		v.Valid = false
		v.Issues = append(v.Issues, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
	}

	if result.OverallConfidence < 0 || result.OverallConfidence > 1 {
		fail("overall confidence %.3f outside [0,1]", result.OverallConfidence)
	}
	for _, field := range model.AllFields {
		c := result.Data.Get(field)
		if c == nil {
			continue
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			fail("%s confidence %.3f outside [0,1]", field, c.Confidence)
		}
		if c.Field != field {
			fail("%s slot holds a %s candidate", field, c.Field)
		}
	}

	if d := result.Data.Date; d != nil && d.Date != nil {
		if d.Date.Month < 1 || d.Date.Month > 12 || d.Date.Day < 1 || d.Date.Day > 31 {
			fail("resolved date %d-%d out of calendar range", d.Date.Month, d.Date.Day)
		}
		if d.Date.Ambiguous {
			warn("resolved date is flagged ambiguous")
		}
	}
	if tm := result.Data.Time; tm != nil && tm.Time != nil {
		if tm.Time.Hour < 0 || tm.Time.Hour > 23 || tm.Time.Minute < 0 || tm.Time.Minute > 59 {
			fail("resolved time %02d:%02d out of range", tm.Time.Hour, tm.Time.Minute)
		}
		if !tm.Time.ExplicitPeriod && tm.Time.Kind != model.TimeContextual {
			warn("time meridiem was inferred, not explicit")
		}
	}
	if pr := result.Data.Price; pr != nil && pr.Price != nil {
		if pr.Price.Min != nil && pr.Price.Max != nil && *pr.Price.Min > *pr.Price.Max {
			fail("price min %.2f exceeds max %.2f", *pr.Price.Min, *pr.Price.Max)
		}
	}
	if result.Data.StartsAt != nil && (result.Data.Date == nil || result.Data.Time == nil) {
		fail("combined instant present without both date and time")
	}

	if result.HasIssue(model.IssueLowConfidence) {
		warn("overall confidence below 0.7")
	}
	if result.HasIssue(model.IssuePoorOCRQuality) {
		warn("input text shows signs of poor recognition quality")
	}
	return v
}
