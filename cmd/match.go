package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bizmatch/match-cli/internal/matcher"
	"github.com/bizmatch/match-cli/internal/model"
	"github.com/bizmatch/match-cli/internal/store"
)

var (
	matchOrgID          string
	matchScale          string
	matchIndustry       string
	matchRegions        []string
	matchRevenueRange   string
	matchEmployeeBucket string
	matchEstablished    string
	matchCerts          []string
	matchFemaleOwned    bool
	matchRestart        bool
	matchCEOAge         int
	matchMinScore       int
	matchLimit          int
	matchIncludeExpired bool
	matchOutput         string
	matchSave           bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score stored programs against an organization profile",
	Long:  "Loads active programs, applies eligibility gates and the twelve-factor rubric, and prints ranked recommendations with Korean explanations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		org, err := resolveOrganization(cmd, st)
		if err != nil {
			return err
		}

		programs, err := st.ListPrograms(ctx, store.ProgramFilter{
			Status: model.ProgramStatusActive,
			Limit:  cfg.Dedupe.BatchLimit,
		})
		if err != nil {
			return eris.Wrap(err, "match: list programs")
		}

		m, err := initMatcher()
		if err != nil {
			return err
		}

		minScore := matchMinScore
		if minScore == 0 {
			minScore = cfg.Matcher.MinScore
		}
		limit := matchLimit
		if limit == 0 {
			limit = cfg.Matcher.Limit
		}

		results := m.Generate(org, programs, matcher.Options{
			MinScore:       minScore,
			Limit:          limit,
			IncludeExpired: matchIncludeExpired,
		})

		zap.L().Info("matching complete",
			zap.String("organization", org.Name),
			zap.Int("programs", len(programs)),
			zap.Int("results", len(results)),
		)

		if matchSave {
			run, err := st.SaveMatchRun(ctx, org.ID, results)
			if err != nil {
				return eris.Wrap(err, "match: save run")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return writeMatches(os.Stdout, matchOutput, results)
	},
}

// resolveOrganization loads a stored profile by ID or assembles an ad-hoc
// one from flags.
func resolveOrganization(cmd *cobra.Command, st store.Store) (model.Organization, error) {
	if matchOrgID != "" {
		org, err := st.GetOrganization(cmd.Context(), matchOrgID)
		if err != nil {
			return model.Organization{}, eris.Wrap(err, "match: load organization")
		}
		if org == nil {
			return model.Organization{}, eris.Errorf("organization %s not found", matchOrgID)
		}
		return *org, nil
	}

	org := model.Organization{
		Name:           "ad-hoc",
		Scale:          model.CompanyScale(matchScale),
		RevenueRange:   model.RevenueRange(matchRevenueRange),
		EmployeeBucket: model.EmployeeBucket(matchEmployeeBucket),
		Regions:        matchRegions,
		Certifications: matchCerts,
		Industry:       matchIndustry,
		IsRestart:      matchRestart,
		FemaleOwned:    matchFemaleOwned,
	}
	if matchEstablished != "" {
		t, err := time.Parse("2006-01-02", matchEstablished)
		if err != nil {
			return model.Organization{}, eris.Wrap(err, "match: parse --established")
		}
		org.EstablishedAt = &t
	}
	if cmd.Flags().Changed("ceo-age") {
		age := matchCEOAge
		org.CEOAge = &age
	}
	return org, nil
}

func init() {
	matchCmd.Flags().StringVar(&matchOrgID, "org", "", "stored organization ID (overrides profile flags)")
	matchCmd.Flags().StringVar(&matchScale, "scale", "", "company scale (STARTUP, SMALL_BUSINESS, ...)")
	matchCmd.Flags().StringVar(&matchIndustry, "industry", "", "industry tag or free text")
	matchCmd.Flags().StringSliceVar(&matchRegions, "region", nil, "operating region codes")
	matchCmd.Flags().StringVar(&matchRevenueRange, "revenue-range", "", "revenue bucket (UNDER_100M, ...)")
	matchCmd.Flags().StringVar(&matchEmployeeBucket, "employees", "", "headcount bucket (UNDER_10, ...)")
	matchCmd.Flags().StringVar(&matchEstablished, "established", "", "establishment date YYYY-MM-DD (omit for pre-startup)")
	matchCmd.Flags().StringSliceVar(&matchCerts, "cert", nil, "held certification codes")
	matchCmd.Flags().BoolVar(&matchFemaleOwned, "female-owned", false, "female-owned business")
	matchCmd.Flags().BoolVar(&matchRestart, "restart", false, "re-entry after business closure")
	matchCmd.Flags().IntVar(&matchCEOAge, "ceo-age", 0, "CEO age in years")
	matchCmd.Flags().IntVar(&matchMinScore, "min-score", 0, "minimum normalized score (default from config)")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "max results (default from config)")
	matchCmd.Flags().BoolVar(&matchIncludeExpired, "include-expired", false, "score past-deadline programs too")
	matchCmd.Flags().StringVar(&matchOutput, "output", "table", "output format: table, json, csv")
	matchCmd.Flags().BoolVar(&matchSave, "save", false, "persist the run to the store")
	rootCmd.AddCommand(matchCmd)
}
