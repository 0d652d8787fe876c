package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatch/match-cli/internal/codes"
	"github.com/bizmatch/match-cli/internal/model"
)

func newTestMatcher() *Matcher {
	m := New(DefaultConfig(), nil)
	m.Now = func() time.Time { return testNow }
	return m
}

func deadlineIn(days int) *time.Time {
	d := testNow.Add(time.Duration(days) * 24 * time.Hour)
	return &d
}

func TestGenerateEarlyStageScenario(t *testing.T) {
	m := newTestMatcher()

	org := model.Organization{
		ID:      "org-1",
		Name:    "프리시드",
		Scale:   model.ScaleStartup,
		Regions: []string{"11000"},
	}
	prog := model.Program{
		ID:       "prog-1",
		Title:    "청년 예비창업자 사업화 지원",
		Status:   model.ProgramStatusActive,
		Deadline: deadlineIn(5),
		BizType:  "창업",
	}

	results := m.Generate(org, []model.Program{prog}, Options{})
	require.Len(t, results, 1)

	res := results[0]
	// 10+7+5+5+7+0+28+2+8+15+1+1 = 89 raw, round(89/150*100) = 59.
	assert.InDelta(t, 89.0, res.RawScore, 0.001)
	assert.Equal(t, 59, res.Score)
	assert.Equal(t, model.EligibilityFull, res.Eligibility)

	assert.Equal(t, 28.0, res.Breakdown.BizType, "startup program against a startup")
	assert.Equal(t, 15.0, res.Breakdown.Deadline, "five days out is urgent")
	assert.Equal(t, 2.0, res.Breakdown.Lifecycle, "untagged startup program, pre-startup stage")
	assert.Equal(t, 7.0, res.Breakdown.Region, "nationwide is open, not matched")
	assert.Equal(t, 0.0, res.Breakdown.Certification)

	// The explanation flags the looming deadline and the profile gap.
	assert.NotEmpty(t, res.Explanation.Summary)
	assert.True(t, anyContains(res.Explanation.Warnings, "D-5"),
		"deadline warning expected, got %v", res.Explanation.Warnings)
	assert.True(t, anyContains(res.Explanation.Warnings, "업종"),
		"profile gap warning for missing industry expected, got %v", res.Explanation.Warnings)
}

func anyContains(items []string, substr string) bool {
	for _, it := range items {
		if containsAny(it, substr) {
			return true
		}
	}
	return false
}

func TestGenerateExcludesGatedPrograms(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{ID: "org-1", Scale: model.ScaleLarge}

	programs := []model.Program{
		{
			ID:         "sme-only",
			Status:     model.ProgramStatusActive,
			ScaleCodes: []string{codes.ScaleCodeStartup, codes.ScaleCodeSmall},
			BizType:    "창업",
		},
	}
	assert.Empty(t, m.Generate(org, programs, Options{MinScore: 1}))
}

func TestGenerateSkipsExpiredUnlessIncluded(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{ID: "org-1", Scale: model.ScaleStartup}

	programs := []model.Program{
		{ID: "expired", Status: model.ProgramStatusActive, Deadline: deadlineIn(-10), BizType: "창업"},
		{ID: "closed", Status: model.ProgramStatusClosed, BizType: "창업"},
	}

	assert.Empty(t, m.Generate(org, programs, Options{MinScore: 1}))

	results := m.Generate(org, programs, Options{MinScore: 1, IncludeExpired: true})
	assert.Len(t, results, 2)
}

func TestGenerateConditionalRanksBelowFull(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{
		ID:       "org-1",
		Scale:    model.ScaleStartup,
		Industry: "ict",
	}

	full := model.Program{
		ID:       "full",
		Title:    "청년 창업 바우처", // no industry keywords: partial content credit
		Status:   model.ProgramStatusActive,
		Deadline: deadlineIn(5),
		BizType:  "창업",
	}
	// Higher raw score, but the female-owner flag downgrades it.
	conditional := model.Program{
		ID:              "conditional",
		Title:           "여성 창업가 인공지능 빅데이터 플랫폼 사업화 지원",
		Status:          model.ProgramStatusActive,
		Deadline:        deadlineIn(5),
		BizType:         "창업",
		FemaleOwnerOnly: true,
	}

	results := m.Generate(org, []model.Program{conditional, full}, Options{MinScore: 1})
	require.Len(t, results, 2)

	assert.Equal(t, "full", results[0].ProgramID)
	assert.Equal(t, model.EligibilityFull, results[0].Eligibility)
	assert.Equal(t, "conditional", results[1].ProgramID)
	assert.Equal(t, model.EligibilityConditional, results[1].Eligibility)
	assert.Greater(t, results[1].Score, results[0].Score,
		"the conditional result outscores the full one yet still ranks below it")
}

func TestGenerateMinScoreAndLimit(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{ID: "org-1", Scale: model.ScaleStartup}

	programs := []model.Program{
		{ID: "a", Status: model.ProgramStatusActive, Deadline: deadlineIn(5), BizType: "창업"},
		{ID: "b", Status: model.ProgramStatusActive, Deadline: deadlineIn(90), BizType: "창업"},
		{ID: "c", Status: model.ProgramStatusActive, Deadline: deadlineIn(20)},
	}

	// All three clear the default threshold; score order is a > b > c
	// (urgent startup program, distant startup program, untyped program).
	results := m.Generate(org, programs, Options{})
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ProgramID)
	assert.Equal(t, "b", results[1].ProgramID)
	assert.Equal(t, "c", results[2].ProgramID)

	results = m.Generate(org, programs, Options{MinScore: 50})
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ProgramID)

	results = m.Generate(org, programs, Options{Limit: 1})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ProgramID)

	assert.Empty(t, m.Generate(org, programs, Options{MinScore: 95}))
}

func TestGenerateScoreNormalization(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{
		ID:            "org-1",
		Scale:         model.ScaleSmall,
		Industry:      "manufacturing",
		EstablishedAt: yearsAgo(6),
		Regions:       []string{"11000"},
		Revenue:       int64Ptr(2_000_000_000),
		RnDExperience: true,
	}
	programs := []model.Program{
		{ID: "a", Status: model.ProgramStatusActive, Deadline: deadlineIn(10), BizType: "기술개발",
			Title: "스마트공장 소재 부품 장비 기술개발 지원", SupportAmount: int64Ptr(300_000_000)},
		{ID: "b", Status: model.ProgramStatusActive, BizType: "수출", SupportType: "융자"},
		{ID: "c", Status: model.ProgramStatusActive, Deadline: deadlineIn(50)},
	}

	for _, res := range m.Generate(org, programs, Options{MinScore: 1}) {
		want := int(res.RawScore/150*100 + 0.5)
		assert.Equal(t, want, res.Score, "program %s", res.ProgramID)
		assert.GreaterOrEqual(t, res.Score, 0)
		assert.LessOrEqual(t, res.Score, 100)
		assert.LessOrEqual(t, res.RawScore, 150.0)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	m := newTestMatcher()
	org := model.Organization{ID: "org-1", Scale: model.ScaleStartup, Industry: "ict"}
	programs := []model.Program{
		{ID: "a", Status: model.ProgramStatusActive, BizType: "창업", Deadline: deadlineIn(5)},
		{ID: "b", Status: model.ProgramStatusActive, BizType: "창업", Deadline: deadlineIn(5)},
		{ID: "c", Status: model.ProgramStatusActive, BizType: "창업", Deadline: deadlineIn(5)},
	}

	first := m.Generate(org, programs, Options{MinScore: 1})
	for range 10 {
		again := m.Generate(org, programs, Options{MinScore: 1})
		require.Equal(t, first, again)
	}
}
