package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/parser"
	"github.com/sells-group/eventparse/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP parse API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		known, err := loadKnownVenues(cfg)
		if err != nil {
			return err
		}

		p := parser.New(parserConfig(cfg))
		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(p, st, known, limiter),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// parseRequest is the body of POST /v1/parse and /v1/parse/{field}.
type parseRequest struct {
	Text    string              `json:"text"`
	Source  string              `json:"source,omitempty"`
	Save    bool                `json:"save,omitempty"`
	Context *model.ParseContext `json:"context,omitempty"`
}

func newRouter(p *parser.Parser, st store.Store, known []model.KnownVenue, limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/parse", func(w http.ResponseWriter, r *http.Request) {
		req, pctx, ok := decodeParseRequest(w, r, known)
		if !ok {
			return
		}

		result := p.Parse(req.Text, pctx)

		if req.Save && st != nil {
			source := req.Source
			if source == "" {
				source = model.SourceScrape
			}
			if _, err := st.SaveResult(r.Context(), source, req.Text, result); err != nil {
				zap.L().Error("save parse result", zap.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/v1/parse/{field}", func(w http.ResponseWriter, r *http.Request) {
		field, err := fieldFromString(chi.URLParam(r, "field"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		req, pctx, ok := decodeParseRequest(w, r, known)
		if !ok {
			return
		}

		cands := p.ParseField(req.Text, field, pctx)
		writeJSON(w, http.StatusOK, map[string]any{
			"field":      field,
			"candidates": cands,
		})
	})

	r.Get("/v1/results", func(w http.ResponseWriter, r *http.Request) {
		filter := store.RecordFilter{Source: r.URL.Query().Get("source")}
		if v := r.URL.Query().Get("min_confidence"); v != "" {
			if _, err := fmt.Sscanf(v, "%f", &filter.MinConfidence); err != nil {
				writeError(w, http.StatusBadRequest, "invalid min_confidence")
				return
			}
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if _, err := fmt.Sscanf(v, "%d", &filter.Limit); err != nil {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
		}

		records, err := st.ListResults(r.Context(), filter)
		if err != nil {
			zap.L().Error("list results", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list results failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})
	})

	r.Get("/v1/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.GetResult(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Get("/v1/venues", func(w http.ResponseWriter, r *http.Request) {
		venues, err := st.ListKnownVenues(r.Context())
		if err != nil {
			zap.L().Error("list venues", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list venues failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"venues": venues})
	})

	return r
}

// decodeParseRequest validates the request body and builds the parse context,
// folding in the server's known-venues list when the caller sent none.
func decodeParseRequest(w http.ResponseWriter, r *http.Request, known []model.KnownVenue) (*parseRequest, *model.ParseContext, bool) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return nil, nil, false
	}

	pctx := req.Context
	if pctx == nil {
		pctx = &model.ParseContext{}
	}
	if len(pctx.KnownVenues) == 0 {
		pctx.KnownVenues = known
	}
	return &req, pctx, true
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
