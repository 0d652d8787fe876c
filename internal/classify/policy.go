package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Policy holds the replaceable classification heuristics: per-industry
// keyword lists, a cross-industry relatedness matrix, and the relevance
// floor for unrelated pairs.
type Policy struct {
	Industries     []Industry                    `yaml:"industries"`
	Related        map[string]map[string]float64 `yaml:"related"`
	UnrelatedFloor float64                       `yaml:"unrelated_floor"`
}

// Industry is one classifiable industry tag with its trigger keywords.
type Industry struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// DefaultPolicy returns the embedded keyword policy. Tags are lowercase
// ASCII identifiers; keywords mix Korean announcement vocabulary with the
// English terms that show up in bilingual program text.
func DefaultPolicy() Policy {
	return Policy{
		Industries: []Industry{
			{Tag: "manufacturing", Keywords: []string{
				"제조", "생산", "공장", "스마트공장", "뿌리산업", "소재", "부품", "장비", "manufacturing",
			}},
			{Tag: "ict", Keywords: []string{
				"ict", "정보통신", "소프트웨어", "sw", "인공지능", "ai", "빅데이터", "클라우드",
				"플랫폼", "사물인터넷", "iot", "메타버스", "디지털",
			}},
			{Tag: "bio", Keywords: []string{
				"바이오", "제약", "의료", "헬스케어", "진단", "신약", "임상", "bio", "healthcare",
			}},
			{Tag: "energy", Keywords: []string{
				"에너지", "신재생", "태양광", "수소", "탄소중립", "친환경", "환경", "esg",
			}},
			{Tag: "content", Keywords: []string{
				"콘텐츠", "문화", "게임", "영상", "미디어", "관광", "디자인", "웹툰",
			}},
			{Tag: "agrifood", Keywords: []string{
				"농업", "식품", "농식품", "수산", "축산", "스마트팜", "푸드테크",
			}},
			{Tag: "service", Keywords: []string{
				"유통", "물류", "서비스", "커머스", "프랜차이즈", "소상공인",
			}},
			{Tag: "construction", Keywords: []string{
				"건설", "건축", "토목", "시공", "스마트건설",
			}},
		},
		Related: map[string]map[string]float64{
			"manufacturing": {"ict": 0.6, "energy": 0.5, "construction": 0.4},
			"ict":           {"content": 0.6, "bio": 0.4, "service": 0.5},
			"bio":           {"agrifood": 0.5},
			"energy":        {"construction": 0.5},
			"service":       {"content": 0.4, "agrifood": 0.4},
		},
		UnrelatedFloor: 0.2,
	}
}

// LoadPolicy reads a YAML policy file. Missing file is an error; an empty
// industries list falls back to the defaults at construction time.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, eris.Wrapf(err, "classify: read policy %s", path)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, eris.Wrap(err, "classify: parse policy")
	}
	if p.UnrelatedFloor == 0 {
		p.UnrelatedFloor = DefaultPolicy().UnrelatedFloor
	}
	return p, nil
}
