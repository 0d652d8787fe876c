package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bizmatch/match-cli/internal/dedupe"
	"github.com/bizmatch/match-cli/internal/model"
	"github.com/bizmatch/match-cli/internal/store"
)

var (
	dedupeThreshold float64
	dedupeStatus    string
	dedupeLimit     int
	dedupeOutput    string
	dedupeApply     bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Detect duplicate announcements among stored candidates",
	Long:  "Runs three-tier duplicate detection (content hash, announcement sequence, title similarity) over stored candidates and optionally marks the losers.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("dedupe"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit := dedupeLimit
		if limit == 0 {
			limit = cfg.Dedupe.BatchLimit
		}
		candidates, err := st.ListCandidates(ctx, store.CandidateFilter{
			Status: model.CandidateStatus(dedupeStatus),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "dedupe: list candidates")
		}

		threshold := dedupeThreshold
		if threshold == 0 {
			threshold = cfg.Dedupe.SimilarityThreshold
		}
		result, err := dedupe.Detect(candidates, dedupe.Options{
			EnableBusinessKeyTier: cfg.Dedupe.BusinessKeyTier,
			SimilarityThreshold:   threshold,
		})
		if err != nil {
			return eris.Wrap(err, "dedupe: detect")
		}

		zap.L().Info("detection complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("groups", result.Summary.GroupCount),
			zap.Int("duplicates", result.Summary.DuplicateCount),
		)

		if err := writeDetection(os.Stdout, dedupeOutput, result); err != nil {
			return err
		}

		if dedupeApply {
			var marked int64
			for _, g := range result.Groups {
				ids := make([]string, 0, len(g.Records)-1)
				for _, r := range g.Records {
					if r.ID != g.KeepID {
						ids = append(ids, r.ID)
					}
				}
				n, err := st.MarkDuplicates(ctx, g.KeepID, ids)
				if err != nil {
					return eris.Wrap(err, "dedupe: mark duplicates")
				}
				marked += n
			}
			zap.L().Info("duplicates marked", zap.Int64("rows", marked))
		}

		return nil
	},
}

func init() {
	dedupeCmd.Flags().Float64Var(&dedupeThreshold, "threshold", 0, "title similarity cutoff (default from config)")
	dedupeCmd.Flags().StringVar(&dedupeStatus, "status", "active", "candidate status filter")
	dedupeCmd.Flags().IntVar(&dedupeLimit, "limit", 0, "max candidates to load (default from config)")
	dedupeCmd.Flags().StringVar(&dedupeOutput, "output", "table", "output format: table, json, csv")
	dedupeCmd.Flags().BoolVar(&dedupeApply, "apply", false, "mark non-keep group members as duplicate in the store")
	rootCmd.AddCommand(dedupeCmd)
}
