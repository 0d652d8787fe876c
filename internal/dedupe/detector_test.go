package dedupe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatch/match-cli/internal/model"
)

var baseTime = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func cand(id, title string) model.Candidate {
	return model.Candidate{
		ID:        id,
		Title:     title,
		Status:    model.CandidateStatusActive,
		UpdatedAt: baseTime,
	}
}

func TestDetectRejectsBadBatches(t *testing.T) {
	_, err := Detect([]model.Candidate{{Title: "무제"}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 0")

	_, err = Detect([]model.Candidate{cand("a", "하나"), cand("a", "둘")}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate identifier")
}

func TestDetectEmptyAndSingleton(t *testing.T) {
	res, err := Detect(nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Equal(t, 0, res.Summary.GroupCount)

	res, err = Detect([]model.Candidate{cand("a", "유일한 공고")}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
}

func TestDetectContentHashTier(t *testing.T) {
	a := cand("a", "청년창업 지원사업")
	b := cand("b", "전혀 다른 제목의 공고")
	a.ContentHash, b.ContentHash = "h1", "h1"
	c := cand("c", "또 다른 공고")
	c.ContentHash = "h2" // singleton hash never groups

	res, err := Detect([]model.Candidate{a, b, c}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)

	g := res.Groups[0]
	assert.Equal(t, ReasonContentHash, g.Reason)
	assert.Equal(t, 1.0, g.Similarity)
	assert.Len(t, g.Records, 2)
	assert.Equal(t, 1, res.Summary.DuplicateCount)
}

func TestDetectBusinessKeyTierIsOptional(t *testing.T) {
	a := cand("a", "청년창업 지원사업 공고")
	b := cand("b", "소상공인 스마트상점 기술보급")
	a.BusinessKey, b.BusinessKey = "174022", "174022"

	// Disabled: dissimilar titles, shared key, no group.
	res, err := Detect([]model.Candidate{a, b}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)

	// Enabled: the shared announcement sequence groups them.
	res, err = Detect([]model.Candidate{a, b}, Options{EnableBusinessKeyTier: true})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, ReasonBusinessKey, res.Groups[0].Reason)
	assert.Equal(t, 1.0, res.Groups[0].Similarity)
}

func TestDetectTierExclusivity(t *testing.T) {
	// a and b share a hash AND near-identical titles; the earlier tier
	// claims them and tier 3 must not see them again.
	a := cand("a", "2026년 청년창업 지원사업 공고")
	b := cand("b", "2026년 청년창업 지원사업 공고!")
	a.ContentHash, b.ContentHash = "h1", "h1"

	res, err := Detect([]model.Candidate{a, b}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, ReasonContentHash, res.Groups[0].Reason)
	assert.Equal(t, 1, res.Summary.ByReason[ReasonContentHash])
	assert.Equal(t, 0, res.Summary.ByReason[ReasonTitleSimilarity])
}

func TestDetectSimilarityTierTransitive(t *testing.T) {
	// Equal-length titles of 19 runes, one substitution per neighbor.
	// a-b and b-c each sit at 18/19 = 0.947; a-c accumulates both edits
	// and lands at 17/19 = 0.895, under the bar. All three must still
	// close into one cluster through b, not two separate pairs.
	a := cand("a", "2026년 청년창업 지원사업 본공고")
	b := cand("b", "2026년 청년창업 지원사업 재공고")
	c := cand("c", "2026년 청년창업 지원사업 재공모")
	d := cand("d", "소상공인 스마트상점 기술보급 사업")

	res, err := Detect([]model.Candidate{a, b, c, d}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)

	g := res.Groups[0]
	assert.Equal(t, ReasonTitleSimilarity, g.Reason)
	require.Len(t, g.Records, 3)
	assert.Equal(t, "a", g.Records[0].ID)

	// Reported similarity is the weakest link among the qualifying pairs;
	// the sub-threshold a-c pair is never observed and never drags it down.
	assert.InDelta(t, 18.0/19.0, g.Similarity, 0.0001)
}

func TestDetectSimilarityThresholdOverride(t *testing.T) {
	a := cand("a", "청년창업 지원사업 공고") // 12 runes
	b := cand("b", "청년창업 지원사업 공고문") // one insertion: sim 12/13 = 0.923

	res, err := Detect([]model.Candidate{a, b}, Options{SimilarityThreshold: 0.95})
	require.NoError(t, err)
	assert.Empty(t, res.Groups, "0.923 misses a 0.95 bar")

	res, err = Detect([]model.Candidate{a, b}, Options{SimilarityThreshold: 0.92})
	require.NoError(t, err)
	assert.Len(t, res.Groups, 1)
}

func TestDetectSkipsEmptySignals(t *testing.T) {
	// Empty hashes, keys, and titles never group, even with each other.
	a := cand("a", "")
	b := cand("b", "   ")
	res, err := Detect([]model.Candidate{a, b}, Options{EnableBusinessKeyTier: true})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
}

func TestSelectKeepOrder(t *testing.T) {
	at := func(h int) time.Time { return baseTime.Add(time.Duration(h) * time.Hour) }

	a := cand("a", "t")
	a.Completeness.Percent = 80
	b := cand("b", "t")
	b.Completeness.Percent = 90
	b.MatchCount = 1
	c := cand("c", "t")
	c.Completeness.Percent = 90
	c.MatchCount = 5

	// Completeness first, then dependent match count.
	assert.Equal(t, "c", selectKeep([]model.Candidate{a, b, c}))

	// Equal completeness and matches: latest update wins.
	d, e := cand("d", "t"), cand("e", "t")
	d.UpdatedAt, e.UpdatedAt = at(1), at(2)
	assert.Equal(t, "e", selectKeep([]model.Candidate{d, e}))

	// Full tie: input order wins.
	f, g := cand("f", "t"), cand("g", "t")
	assert.Equal(t, "f", selectKeep([]model.Candidate{f, g}))
}

func TestDetectDeterministic(t *testing.T) {
	// A batch large enough to spread across the worker pool must produce
	// identical output on every run.
	var records []model.Candidate
	for i := 0; i < 60; i++ {
		records = append(records, cand(
			fmt.Sprintf("r%02d", i),
			fmt.Sprintf("2026년 창업도약패키지 지원사업 %02d차 공고", i%20),
		))
	}

	first, err := Detect(records, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, first.Groups)

	for i := 0; i < 10; i++ {
		again, err := Detect(records, Options{})
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
