package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/bizmatch/match-cli/internal/dedupe"
	"github.com/bizmatch/match-cli/internal/model"
)

// writeDetection renders a detection result in the requested format.
func writeDetection(out io.Writer, format string, res *dedupe.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "csv":
		w := csv.NewWriter(out)
		_ = w.Write([]string{"group", "reason", "similarity", "record_id", "title", "keep"})
		for i, g := range res.Groups {
			for _, r := range g.Records {
				_ = w.Write([]string{
					strconv.Itoa(i + 1),
					string(g.Reason),
					fmt.Sprintf("%.3f", g.Similarity),
					r.ID,
					r.Title,
					strconv.FormatBool(r.ID == g.KeepID),
				})
			}
		}
		w.Flush()
		return w.Error()
	case "table":
		formatDetectionTable(out, res)
		return nil
	default:
		return eris.Errorf("unknown output format: %s", format)
	}
}

func formatDetectionTable(out io.Writer, res *dedupe.Result) {
	if res.Summary.GroupCount == 0 {
		fmt.Fprintln(out, "No duplicate groups found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GROUP\tREASON\tSIMILARITY\tRECORD\tTITLE\tKEEP")
	_, _ = fmt.Fprintln(w, "-----\t------\t----------\t------\t-----\t----")
	for i, g := range res.Groups {
		for _, r := range g.Records {
			keep := ""
			if r.ID == g.KeepID {
				keep = "*"
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%.3f\t%s\t%s\t%s\n",
				i+1, g.Reason, g.Similarity, truncateID(r.ID), truncateText(r.Title, 40), keep)
		}
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d groups, %d duplicates", res.Summary.GroupCount, res.Summary.DuplicateCount)
	// Tier order, so repeated runs print the tally identically.
	for _, reason := range []dedupe.Reason{dedupe.ReasonContentHash, dedupe.ReasonBusinessKey, dedupe.ReasonTitleSimilarity} {
		if n := res.Summary.ByReason[reason]; n > 0 {
			_, _ = fmt.Fprintf(out, "  %s=%d", reason, n)
		}
	}
	_, _ = fmt.Fprintln(out)
}

// writeMatches renders scored recommendations in the requested format.
func writeMatches(out io.Writer, format string, results []model.MatchResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		w := csv.NewWriter(out)
		_ = w.Write([]string{"program_id", "title", "score", "raw_score", "eligibility", "summary"})
		for _, r := range results {
			_ = w.Write([]string{
				r.ProgramID,
				r.ProgramTitle,
				strconv.Itoa(r.Score),
				fmt.Sprintf("%.1f", r.RawScore),
				string(r.Eligibility),
				r.Explanation.Summary,
			})
		}
		w.Flush()
		return w.Error()
	case "table":
		formatMatchTable(out, results)
		return nil
	default:
		return eris.Errorf("unknown output format: %s", format)
	}
}

func formatMatchTable(out io.Writer, results []model.MatchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No eligible programs found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tELIGIBILITY\tPROGRAM\tSUMMARY")
	_, _ = fmt.Fprintln(w, "-----\t-----------\t-------\t-------")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			r.Score, r.Eligibility, truncateText(r.ProgramTitle, 36), truncateText(r.Explanation.Summary, 50))
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncateText shortens display text by rune count, Korean-safe.
func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
