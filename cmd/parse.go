package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/parser"
)

var (
	parseFile      string
	parseField     string
	parseSource    string
	parseSave      bool
	parseEventType string
	parseLocation  string
)

var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Parse event facts from a single text",
	Long:  "Parses one listing text given as an argument, from --file, or from stdin, and prints the result as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readParseInput(args)
		if err != nil {
			return err
		}

		known, err := loadKnownVenues(cfg)
		if err != nil {
			return err
		}
		pctx := &model.ParseContext{
			KnownVenues:      known,
			EventType:        parseEventType,
			ExpectedLocation: parseLocation,
		}

		p := parser.New(parserConfig(cfg))

		if parseField != "" {
			field, err := fieldFromString(parseField)
			if err != nil {
				return err
			}
			cands := p.ParseField(text, field, pctx)
			return printJSON(cmd.OutOrStdout(), cands)
		}

		result := p.Parse(text, pctx)

		if parseSave {
			st, err := initStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			rec, err := st.SaveResult(cmd.Context(), parseSource, text, result)
			if err != nil {
				return err
			}
			zap.L().Info("result saved", zap.String("id", rec.ID))
		}

		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFile, "file", "", "read input text from file")
	parseCmd.Flags().StringVar(&parseField, "field", "", "extract a single field (date, time, price, venue)")
	parseCmd.Flags().StringVar(&parseSource, "source", model.SourceManual, "input source label (scrape, ocr, manual)")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "persist the result to the configured store")
	parseCmd.Flags().StringVar(&parseEventType, "event-type", "", "event type hint (concert, theater, workshop)")
	parseCmd.Flags().StringVar(&parseLocation, "location", "", "expected location hint")
	rootCmd.AddCommand(parseCmd)
}

func readParseInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if parseFile != "" {
		raw, err := os.ReadFile(parseFile)
		if err != nil {
			return "", eris.Wrapf(err, "read input file %s", parseFile)
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", eris.Wrap(err, "read stdin")
	}
	return string(raw), nil
}

func fieldFromString(s string) (model.FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date":
		return model.FieldDate, nil
	case "time":
		return model.FieldTime, nil
	case "price":
		return model.FieldPrice, nil
	case "venue":
		return model.FieldVenue, nil
	}
	return "", eris.Errorf("unknown field %q (want date, time, price, or venue)", s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
