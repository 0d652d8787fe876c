package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizmatch/match-cli/internal/model"
)

// Report summarizes a parse pass over a spreadsheet.
type Report struct {
	Imported int
	Skipped  int
	Errors   []string
}

// headerIndex maps canonical column names to their position. Source files
// use a mix of English snake_case headers and the Korean names the agencies
// publish, so both are accepted.
type headerIndex map[string]int

var columnAliases = map[string]string{
	"pblanc_seq": "business_key",
	"pblancseq":  "business_key",
	"공고번호":       "business_key",
	"공고명":        "title",
	"사업명":        "title",
	"공고내용":       "description",
	"지원내용":       "support_content",
	"지원대상업종":     "target_industry",
	"접수마감일":      "deadline",
	"마감일":        "deadline",
	"지원유형":       "support_type",
	"사업유형":       "biz_type",
}

func buildHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			key = canonical
		}
		if _, dup := idx[key]; !dup && key != "" {
			idx[key] = i
		}
	}
	return idx
}

func (h headerIndex) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseCandidates converts spreadsheet rows into candidates. Rows without a
// title are skipped and reported. Missing IDs are generated. Completeness is
// computed over the non-ID columns the file actually carries, so records
// from the same source compare fairly during keep-selection.
func ParseCandidates(header []string, rows [][]string) ([]model.Candidate, Report) {
	idx := buildHeaderIndex(header)
	now := time.Now().UTC()

	var out []model.Candidate
	var rep Report

	for i, row := range rows {
		title := idx.get(row, "title")
		if title == "" {
			rep.Skipped++
			rep.Errors = append(rep.Errors, "row "+strconv.Itoa(i+1)+": missing title")
			continue
		}

		c := model.Candidate{
			ID:          idx.get(row, "id"),
			Title:       title,
			BusinessKey: idx.get(row, "business_key"),
			ContentHash: idx.get(row, "content_hash"),
			Status:      model.CandidateStatus(idx.get(row, "status")),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Status == "" {
			c.Status = model.CandidateStatusActive
		}
		if n, err := strconv.Atoi(idx.get(row, "match_count")); err == nil {
			c.MatchCount = n
		}
		if t := parseDate(idx.get(row, "updated_at")); t != nil {
			c.UpdatedAt = *t
		}
		c.Completeness = completeness(idx, row)

		out = append(out, c)
		rep.Imported++
	}

	return out, rep
}

// ParsePrograms converts spreadsheet rows into programs. Rows without a
// title are skipped and reported; everything else degrades to zero values,
// which downstream scoring treats as "no restriction".
func ParsePrograms(header []string, rows [][]string) ([]model.Program, Report) {
	idx := buildHeaderIndex(header)

	var out []model.Program
	var rep Report

	for i, row := range rows {
		title := idx.get(row, "title")
		if title == "" {
			rep.Skipped++
			rep.Errors = append(rep.Errors, "row "+strconv.Itoa(i+1)+": missing title")
			continue
		}

		p := model.Program{
			ID:             idx.get(row, "id"),
			Title:          title,
			Description:    idx.get(row, "description"),
			SupportContent: idx.get(row, "support_content"),
			TargetIndustry: idx.get(row, "target_industry"),
			Status:         model.ProgramStatus(idx.get(row, "status")),
			Deadline:       parseDate(idx.get(row, "deadline")),

			ScaleCodes:      splitList(idx.get(row, "scale_codes")),
			RequiredCerts:   splitList(idx.get(row, "required_certs")),
			RegionCodes:     splitList(idx.get(row, "region_codes")),
			PreStartupOnly:  parseBool(idx.get(row, "pre_startup_only")),
			RestartOnly:     parseBool(idx.get(row, "restart_only")),
			FemaleOwnerOnly: parseBool(idx.get(row, "female_owner_only")),
			CEOAgeMin:       parseIntPtr(idx.get(row, "ceo_age_min")),
			CEOAgeMax:       parseIntPtr(idx.get(row, "ceo_age_max")),

			RevenueRanges:   splitList(idx.get(row, "revenue_ranges")),
			EmployeeBuckets: splitList(idx.get(row, "employee_buckets")),
			BusinessAgeMin:  parseIntPtr(idx.get(row, "business_age_min")),
			BusinessAgeMax:  parseIntPtr(idx.get(row, "business_age_max")),

			BizType:       idx.get(row, "biz_type"),
			LifecycleTags: splitList(idx.get(row, "lifecycle_tags")),
			SupportType:   idx.get(row, "support_type"),
			SupportAmount: parseInt64Ptr(idx.get(row, "support_amount")),
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Status == "" {
			p.Status = model.ProgramStatusActive
		}

		out = append(out, p)
		rep.Imported++
	}

	return out, rep
}

// completeness counts populated non-ID cells against the columns present in
// the header. The total is per-file constant so percent values are
// comparable across rows.
func completeness(idx headerIndex, row []string) model.Completeness {
	var filled, total int
	for name, i := range idx {
		if name == "id" {
			continue
		}
		total++
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			filled++
		}
	}

	c := model.Completeness{Filled: filled, Total: total}
	if total > 0 {
		c.Percent = int(float64(filled)/float64(total)*100 + 0.5)
	}
	return c
}

// dateLayouts covers the formats seen in agency exports.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"20060102",
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// splitList parses a delimited cell into trimmed entries. Agency exports
// mix commas, semicolons, and pipes.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "예":
		return true
	}
	return false
}

func parseIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseInt64Ptr(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
