package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/eventparse/internal/config"
	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/parser"
	"github.com/sells-group/eventparse/internal/store"
	"github.com/sells-group/eventparse/internal/venues"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "eventparse.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// parserConfig maps the loaded file/env configuration onto orchestrator knobs.
func parserConfig(c *config.Config) parser.Config {
	pc := parser.DefaultConfig()
	if c.Parser.MinConfidence > 0 {
		pc.MinConfidence = c.Parser.MinConfidence
	}
	if c.Parser.DateWeight > 0 {
		pc.FieldWeights[model.FieldDate] = c.Parser.DateWeight
	}
	if c.Parser.TimeWeight > 0 {
		pc.FieldWeights[model.FieldTime] = c.Parser.TimeWeight
	}
	if c.Parser.PriceWeight > 0 {
		pc.FieldWeights[model.FieldPrice] = c.Parser.PriceWeight
	}
	if c.Parser.VenueWeight > 0 {
		pc.FieldWeights[model.FieldVenue] = c.Parser.VenueWeight
	}
	return pc
}

// loadKnownVenues reads the configured venues file, if any.
func loadKnownVenues(c *config.Config) ([]model.KnownVenue, error) {
	if c.Venues.Path == "" {
		return nil, nil
	}
	return venues.Load(c.Venues.Path)
}
