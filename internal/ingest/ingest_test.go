package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/bizmatch/match-cli/internal/model"
)

func TestReadCSV(t *testing.T) {
	in := "id,title,status\n c1 , 첫 공고 ,active\nc2,둘째 공고,closed\n"

	header, rows, err := ReadCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "title", "status"}, header)
	require.Len(t, rows, 2)
	// Cells come back trimmed
	assert.Equal(t, []string{"c1", "첫 공고", "active"}, rows[0])
}

func TestReadCSVEmpty(t *testing.T) {
	_, _, err := ReadCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSVVariableFields(t *testing.T) {
	in := "id,title\nc1,공고,extra\nc2\n"

	_, rows, err := ReadCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 1)
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "title"},
			{"p1", "창업 지원사업"},
			{"p2", "기술개발 과제"},
		},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "창업 지원사업", rows[0][1])
}

func TestReadXLSXSheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"ignored": {{"x"}},
		"공고목록":    {{"title"}, {"실제 공고"}},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{SheetName: "공고목록"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, header)
	require.Len(t, rows, 1)

	_, _, err = ReadXLSX(path, XLSXOptions{SheetName: "없는시트"})
	assert.Error(t, err)
}

func TestParseCandidates(t *testing.T) {
	header := []string{"id", "title", "pblanc_seq", "content_hash", "status", "match_count", "updated_at"}
	rows := [][]string{
		{"c1", "2026년 청년창업 지원사업", "174022", "abc123", "active", "3", "2026-02-01"},
		{"", "부분 채움 공고", "", "", "", "", ""},
		{"c3", "", "999", "", "active", "", ""}, // no title
	}

	cands, rep := ParseCandidates(header, rows)
	require.Len(t, cands, 2)
	assert.Equal(t, 2, rep.Imported)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "row 3")

	full := cands[0]
	assert.Equal(t, "c1", full.ID)
	assert.Equal(t, "174022", full.BusinessKey)
	assert.Equal(t, 3, full.MatchCount)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), full.UpdatedAt)
	// 6 non-id columns, all filled
	assert.Equal(t, model.Completeness{Percent: 100, Filled: 6, Total: 6}, full.Completeness)

	partial := cands[1]
	assert.NotEmpty(t, partial.ID, "missing ID is generated")
	assert.Equal(t, model.CandidateStatusActive, partial.Status)
	assert.Equal(t, 1, partial.Completeness.Filled)
	assert.Equal(t, 6, partial.Completeness.Total)
	assert.Equal(t, 17, partial.Completeness.Percent)
}

func TestParsePrograms(t *testing.T) {
	header := []string{"id", "공고명", "접수마감일", "scale_codes", "pre_startup_only", "ceo_age_max", "support_amount", "lifecycle_tags", "사업유형"}
	rows := [][]string{
		{"p1", "청년 예비창업 패키지", "2026.03.31", "STARTUP|SMALL_BUSINESS", "Y", "39", "100,000,000", "예비창업;초기창업", "창업"},
		{"p2", "일반 공고", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "", "", "", ""}, // no title
	}

	progs, rep := ParsePrograms(header, rows)
	require.Len(t, progs, 2)
	assert.Equal(t, 1, rep.Skipped)

	p := progs[0]
	assert.Equal(t, "청년 예비창업 패키지", p.Title)
	require.NotNil(t, p.Deadline)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *p.Deadline)
	assert.Equal(t, []string{"STARTUP", "SMALL_BUSINESS"}, p.ScaleCodes)
	assert.True(t, p.PreStartupOnly)
	require.NotNil(t, p.CEOAgeMax)
	assert.Equal(t, 39, *p.CEOAgeMax)
	require.NotNil(t, p.SupportAmount)
	assert.Equal(t, int64(100000000), *p.SupportAmount)
	assert.Equal(t, []string{"예비창업", "초기창업"}, p.LifecycleTags)
	assert.Equal(t, "창업", p.BizType)

	bare := progs[1]
	assert.Equal(t, model.ProgramStatusActive, bare.Status)
	assert.Nil(t, bare.Deadline)
	assert.Nil(t, bare.ScaleCodes)
	assert.False(t, bare.PreStartupOnly)
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-03-31", "2026.03.31", "2026/03/31", "20260331"} {
		got := parseDate(in)
		require.NotNil(t, got, in)
		assert.Equal(t, want, *got, in)
	}
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("마감"))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a, b; c"))
	assert.Equal(t, []string{"11000"}, splitList(" 11000 "))
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"1", "y", "Y", "yes", "true", "예"} {
		assert.True(t, parseBool(in), in)
	}
	for _, in := range []string{"", "0", "n", "아니오"} {
		assert.False(t, parseBool(in), in)
	}
}
