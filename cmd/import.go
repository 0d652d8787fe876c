package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bizmatch/match-cli/internal/ingest"
)

var (
	importFile  string
	importKind  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import programs or candidates from CSV/XLSX into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		header, rows, err := readRows(ctx, importFile, importSheet)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var rep ingest.Report
		var upserted int64

		switch importKind {
		case "programs":
			programs, r := ingest.ParsePrograms(header, rows)
			rep = r
			upserted, err = st.UpsertPrograms(ctx, programs)
		case "candidates":
			candidates, r := ingest.ParseCandidates(header, rows)
			rep = r
			upserted, err = st.UpsertCandidates(ctx, candidates)
		default:
			return eris.Errorf("unknown --kind %q (want programs or candidates)", importKind)
		}
		if err != nil {
			return eris.Wrap(err, "import: upsert")
		}

		for _, e := range rep.Errors {
			zap.L().Warn("row skipped", zap.String("detail", e))
		}
		zap.L().Info("import complete",
			zap.String("file", importFile),
			zap.String("kind", importKind),
			zap.Int("parsed", rep.Imported),
			zap.Int("skipped", rep.Skipped),
			zap.Int64("upserted", upserted),
		)
		return nil
	},
}

// readRows dispatches on file extension. XLSX needs a path; CSV streams.
func readRows(ctx context.Context, path, sheet string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ingest.ReadXLSX(path, ingest.XLSXOptions{SheetName: sheet})
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "import: open csv")
		}
		defer f.Close()
		return ingest.ReadCSV(ctx, f)
	default:
		return nil, nil, eris.Errorf("unsupported file type: %s", path)
	}
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importKind, "kind", "programs", "row type: programs or candidates")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
