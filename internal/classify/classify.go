// Package classify implements keyword-based industry classification of
// program announcement text. The keyword lists are a tuning policy, not a
// structural contract: defaults are embedded and a YAML policy file can
// replace them wholesale.
package classify

import (
	"sort"
	"strings"
)

// MinClassifiableRunes is the minimum amount of text needed to attempt
// classification. Shorter inputs degrade to "insufficient text".
const MinClassifiableRunes = 10

// Classifier tags free text with an industry and computes a continuous
// relevance value against a target industry.
type Classifier struct {
	policy Policy
}

// New creates a Classifier from a policy. A zero-value policy falls back
// to the embedded defaults.
func New(policy Policy) *Classifier {
	if len(policy.Industries) == 0 {
		policy = DefaultPolicy()
	}
	return &Classifier{policy: policy}
}

// Result is the outcome of classifying one text blob.
type Result struct {
	Industry string  `json:"industry"` // "" when the text could not be classified
	Hits     int     `json:"hits"`     // keyword hits for the winning industry
}

// Classify tags text with the industry whose keywords occur most often.
// Returns a zero Result when the text is too short or nothing matched.
// Ties resolve by policy order, so classification is deterministic.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))
	if len([]rune(lower)) < MinClassifiableRunes {
		return Result{}
	}

	best := Result{}
	for _, ind := range c.policy.Industries {
		hits := 0
		for _, kw := range ind.Keywords {
			hits += strings.Count(lower, strings.ToLower(kw))
		}
		if hits > best.Hits {
			best = Result{Industry: ind.Tag, Hits: hits}
		}
	}
	return best
}

// Relevance returns a continuous relevance value in [0,1] between an
// organization industry tag and a program industry tag. Identical tags score
// 1.0; related pairs come from the policy matrix; unrelated known pairs get
// the policy floor. Either side empty returns -1 to signal "unclassifiable",
// letting the caller apply its documented partial-credit default.
func (c *Classifier) Relevance(orgIndustry, programIndustry string) float64 {
	org := canonTag(orgIndustry)
	prog := canonTag(programIndustry)
	if org == "" || prog == "" {
		return -1
	}
	if org == prog {
		return 1.0
	}
	if rel, ok := c.policy.Related[org][prog]; ok {
		return clamp01(rel)
	}
	if rel, ok := c.policy.Related[prog][org]; ok {
		return clamp01(rel)
	}
	return clamp01(c.policy.UnrelatedFloor)
}

// ClassifyProgram classifies the concatenated program text fields and
// returns relevance against the organization industry.
func (c *Classifier) ClassifyProgram(orgIndustry string, texts ...string) (Result, float64) {
	res := c.Classify(strings.Join(texts, " "))
	if res.Industry == "" {
		return res, -1
	}
	return res, c.Relevance(orgIndustry, res.Industry)
}

// Tags returns the known industry tags in policy order.
func (c *Classifier) Tags() []string {
	tags := make([]string, 0, len(c.policy.Industries))
	for _, ind := range c.policy.Industries {
		tags = append(tags, ind.Tag)
	}
	return tags
}

// canonTag normalizes a tag for lookup: trimmed, lowercased.
func canonTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortedTags is used by tests to assert policy stability.
func sortedTags(p Policy) []string {
	tags := make([]string, 0, len(p.Industries))
	for _, ind := range p.Industries {
		tags = append(tags, ind.Tag)
	}
	sort.Strings(tags)
	return tags
}
