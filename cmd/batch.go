package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/eventparse/internal/ingest"
	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/parser"
)

var (
	batchLimit    int
	batchColumn   int
	batchSkipRows int
	batchSheet    string
	batchSource   string
	batchSave     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Parse event texts from a text, CSV, or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		texts, err := ingest.ReadTexts(args[0], ingest.Options{
			Column:    batchColumn,
			SkipRows:  batchSkipRows,
			SheetName: batchSheet,
		})
		if err != nil {
			return err
		}

		known, err := loadKnownVenues(cfg)
		if err != nil {
			return err
		}

		p := parser.New(parserConfig(cfg))
		records, err := processBatch(ctx, p, texts, batchLimit, cfg.Batch.MaxConcurrent, known)
		if err != nil {
			return err
		}

		if batchSave && len(records) > 0 {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			n, err := st.SaveResults(ctx, records)
			if err != nil {
				return eris.Wrap(err, "save batch results")
			}
			zap.L().Info("batch results saved", zap.Int("records", n))
		}

		return printJSON(cmd.OutOrStdout(), records)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of texts to process (0 = all)")
	batchCmd.Flags().IntVar(&batchColumn, "column", 0, "zero-based column holding the text (csv/xlsx)")
	batchCmd.Flags().IntVar(&batchSkipRows, "skip-rows", 0, "header rows to skip (csv/xlsx)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	batchCmd.Flags().StringVar(&batchSource, "source", model.SourceScrape, "input source label (scrape, ocr, manual)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist results to the configured store")
	rootCmd.AddCommand(batchCmd)
}

// processBatch parses texts concurrently and returns records in input order.
// Individual parse panics are already absorbed by the parser, so a failed
// text yields a zero-confidence record rather than aborting the batch.
func processBatch(ctx context.Context, p *parser.Parser, texts []string, limit, concurrency int, known []model.KnownVenue) ([]model.ParseRecord, error) {
	if len(texts) == 0 {
		zap.L().Info("no input texts found")
		return nil, nil
	}

	if limit > 0 && len(texts) > limit {
		texts = texts[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("texts", len(texts)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	records := make([]model.ParseRecord, len(texts))
	var succeeded, failed atomic.Int64

	for i, text := range texts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result := p.Parse(text, &model.ParseContext{KnownVenues: known})
			if result.Success {
				succeeded.Add(1)
			} else {
				failed.Add(1)
				zap.L().Warn("parse resolved no fields", zap.String("text", truncate(text, 80)))
			}

			records[i] = model.ParseRecord{
				Source:     batchSource,
				Input:      text,
				Result:     result,
				Confidence: result.OverallConfidence,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
