package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := New(DefaultPolicy())

	res := c.Classify("인공지능 기반 빅데이터 분석 플랫폼 고도화 지원사업")
	assert.Equal(t, "ict", res.Industry)
	assert.GreaterOrEqual(t, res.Hits, 3)

	res = c.Classify("스마트공장 보급 확산 및 뿌리산업 소재 부품 지원")
	assert.Equal(t, "manufacturing", res.Industry)

	// Too short to classify.
	assert.Equal(t, Result{}, c.Classify("창업 지원"))

	// Long enough but no keyword hits.
	assert.Equal(t, Result{}, c.Classify("2026년 상반기 정기 공고 안내문입니다"))
}

func TestClassifyDeterministicTies(t *testing.T) {
	// One hit each for manufacturing and ict; policy order decides, so
	// repeated runs agree.
	c := New(DefaultPolicy())
	text := "제조 현장의 디지털 전환을 돕는 공고"
	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Classify(text))
	}
}

func TestRelevance(t *testing.T) {
	c := New(DefaultPolicy())

	assert.Equal(t, 1.0, c.Relevance("ict", "ict"))
	assert.Equal(t, 1.0, c.Relevance(" ICT ", "ict"), "tags are canonicalized")

	// The relatedness matrix applies in both directions.
	assert.Equal(t, 0.6, c.Relevance("manufacturing", "ict"))
	assert.Equal(t, 0.6, c.Relevance("ict", "manufacturing"))

	// Unrelated known pairs sit at the floor, not zero.
	assert.Equal(t, 0.2, c.Relevance("bio", "construction"))

	// Either side empty is unclassifiable, not unrelated.
	assert.Equal(t, -1.0, c.Relevance("", "ict"))
	assert.Equal(t, -1.0, c.Relevance("ict", ""))
}

func TestClassifyProgram(t *testing.T) {
	c := New(DefaultPolicy())

	res, rel := c.ClassifyProgram("content", "게임 콘텐츠 제작 지원", "웹툰 미디어 창작 지원")
	assert.Equal(t, "content", res.Industry)
	assert.Equal(t, 1.0, rel)

	_, rel = c.ClassifyProgram("ict", "짧은 글")
	assert.Equal(t, -1.0, rel)
}

func TestNewFallsBackToDefaults(t *testing.T) {
	c := New(Policy{})
	assert.Equal(t, New(DefaultPolicy()).Tags(), c.Tags())
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	doc := `
industries:
  - tag: fintech
    keywords: ["핀테크", "결제", "송금"]
  - tag: mobility
    keywords: ["모빌리티", "자율주행"]
related:
  fintech:
    mobility: 0.3
unrelated_floor: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fintech", "mobility"}, sortedTags(p))
	assert.Equal(t, 0.1, p.UnrelatedFloor)

	c := New(p)
	assert.Equal(t, "fintech", c.Classify("간편 결제 및 해외 송금 핀테크 서비스 지원").Industry)
	assert.Equal(t, 0.3, c.Relevance("mobility", "fintech"))

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
