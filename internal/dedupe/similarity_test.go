package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "", NormalizeTitle("   "))
	assert.Equal(t, "2026년 창업 지원", NormalizeTitle("  2026년   창업  지원 "))

	// Fullwidth digits and parentheses fold to their ASCII forms.
	assert.Equal(t, "(2026) r&d 공고", NormalizeTitle("（２０２６） R&D 공고"))

	// Decomposed jamo compose to the same syllable block.
	assert.Equal(t, NormalizeTitle("창업"), NormalizeTitle("창업"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("청년창업 지원", "청년창업 지원"))
	assert.Equal(t, 1.0, Similarity("", ""))

	// One edit across 10 runes: 1 - 1/10.
	assert.InDelta(t, 0.9, Similarity("청년창업 지원사업!", "청년창업 지원사업?"), 0.001)

	// Transposition counts as a single edit.
	assert.InDelta(t, 0.9, Similarity("청년창업 지원사업!", "청년창업 지원사!업"), 0.001)

	assert.Less(t, Similarity("청년창업 지원사업", "소상공인 기술보급"), 0.2)
}

func TestLengthRatio(t *testing.T) {
	assert.Equal(t, 1.0, lengthRatio("", ""))
	assert.Equal(t, 1.0, lengthRatio("abcd", "abcd"))
	assert.Equal(t, 0.5, lengthRatio("ab", "abcd"))
	assert.Equal(t, 0.5, lengthRatio("abcd", "ab"))

	// A pair below the ratio bound can never clear the same similarity
	// bound, so the prefilter cannot change results.
	a, b := "청년창업", "청년창업 지원사업 공고문"
	assert.Less(t, lengthRatio(a, b), 0.9)
	assert.Less(t, Similarity(a, b), 0.9)
}
