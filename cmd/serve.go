package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bizmatch/match-cli/internal/dedupe"
	"github.com/bizmatch/match-cli/internal/matcher"
	"github.com/bizmatch/match-cli/internal/monitoring"
	"github.com/bizmatch/match-cli/internal/model"
	"github.com/bizmatch/match-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for matching and deduplication",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m, err := initMatcher()
		if err != nil {
			return err
		}

		api := &apiServer{st: st, matcher: m}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
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

// apiServer carries the shared handler dependencies.
type apiServer struct {
	st      store.Store
	matcher *matcher.Matcher
}

// envelope is the uniform response shape.
type envelope struct {
	Data       any `json:"data"`
	TotalCount int `json:"totalCount"`
	Stats      any `json:"stats,omitempty"`
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/match", s.handleMatch)
	r.Post("/api/dedupe", s.handleDedupe)

	return r
}

// rateLimit applies a single shared token bucket to all requests.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
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

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}

	snap, err := monitoring.NewCollector(s.st).Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("collect stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "collect stats failed")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Data: snap, TotalCount: 1})
}

// matchRequest scores stored active programs against a profile, given
// inline or by stored organization ID.
type matchRequest struct {
	OrganizationID string              `json:"organization_id,omitempty"`
	Organization   *model.Organization `json:"organization,omitempty"`
	MinScore       int                 `json:"min_score,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	IncludeExpired bool                `json:"include_expired,omitempty"`
	Save           bool                `json:"save,omitempty"`
}

func (s *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var org model.Organization
	switch {
	case req.Organization != nil:
		org = *req.Organization
	case req.OrganizationID != "":
		stored, err := s.st.GetOrganization(r.Context(), req.OrganizationID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load organization failed")
			return
		}
		if stored == nil {
			writeError(w, http.StatusNotFound, "organization not found")
			return
		}
		org = *stored
	default:
		writeError(w, http.StatusBadRequest, "organization or organization_id is required")
		return
	}

	programs, err := s.st.ListPrograms(r.Context(), store.ProgramFilter{
		Status: model.ProgramStatusActive,
		Limit:  cfg.Dedupe.BatchLimit,
	})
	if err != nil {
		zap.L().Error("list programs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list programs failed")
		return
	}

	minScore := req.MinScore
	if minScore == 0 {
		minScore = cfg.Matcher.MinScore
	}
	limit := req.Limit
	if limit == 0 {
		limit = cfg.Matcher.Limit
	}

	results := s.matcher.Generate(org, programs, matcher.Options{
		MinScore:       minScore,
		Limit:          limit,
		IncludeExpired: req.IncludeExpired,
	})

	if req.Save {
		if _, err := s.st.SaveMatchRun(r.Context(), org.ID, results); err != nil {
			zap.L().Error("save match run failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, envelope{
		Data:       results,
		TotalCount: len(results),
		Stats:      matchStats(results),
	})
}

// matchStats aggregates eligibility levels for the response envelope.
func matchStats(results []model.MatchResult) map[string]int {
	stats := map[string]int{"programsScored": len(results)}
	for _, r := range results {
		stats[string(r.Eligibility)]++
	}
	return stats
}

// dedupeRequest runs detection over inline candidates, or over stored
// active candidates when none are supplied.
type dedupeRequest struct {
	Candidates []model.Candidate `json:"candidates,omitempty"`
	Threshold  float64           `json:"threshold,omitempty"`
	Apply      bool              `json:"apply,omitempty"`
}

func (s *apiServer) handleDedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		var err error
		candidates, err = s.st.ListCandidates(r.Context(), store.CandidateFilter{
			Status: model.CandidateStatusActive,
			Limit:  cfg.Dedupe.BatchLimit,
		})
		if err != nil {
			zap.L().Error("list candidates failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list candidates failed")
			return
		}
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = cfg.Dedupe.SimilarityThreshold
	}

	result, err := dedupe.Detect(candidates, dedupe.Options{
		EnableBusinessKeyTier: cfg.Dedupe.BusinessKeyTier,
		SimilarityThreshold:   threshold,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Apply {
		for _, g := range result.Groups {
			ids := make([]string, 0, len(g.Records)-1)
			for _, rec := range g.Records {
				if rec.ID != g.KeepID {
					ids = append(ids, rec.ID)
				}
			}
			if _, err := s.st.MarkDuplicates(r.Context(), g.KeepID, ids); err != nil {
				zap.L().Error("mark duplicates failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "mark duplicates failed")
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, envelope{
		Data:       result.Groups,
		TotalCount: result.Summary.GroupCount,
		Stats:      result.Summary,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
