package matcher

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/bizmatch/match-cli/internal/classify"
	"github.com/bizmatch/match-cli/internal/model"
)

// Default options, applied when the corresponding Options field is zero.
const (
	DefaultMinScore = 40
	DefaultLimit    = 50
)

// Options configures one matching run.
type Options struct {
	MinScore       int  // drop results below this normalized score; 0 means DefaultMinScore
	IncludeExpired bool // also score closed/expired programs
	Limit          int  // truncate the ranked list; 0 means DefaultLimit
}

func (o Options) withDefaults() Options {
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Matcher scores programs against organization profiles. It is stateless
// apart from its rubric and classifier and safe for concurrent use.
type Matcher struct {
	cfg Config
	cls *classify.Classifier

	// Now is the clock used for deadline and business-age arithmetic.
	// Overridable for deterministic tests.
	Now func() time.Time
}

// New creates a Matcher. A nil classifier gets the default keyword policy.
func New(cfg Config, cls *classify.Classifier) *Matcher {
	if cls == nil {
		cls = classify.New(classify.DefaultPolicy())
	}
	return &Matcher{cfg: cfg, cls: cls, Now: time.Now}
}

// Generate scores every program against the organization, drops ineligible
// and below-threshold results, and returns the ranked, truncated list.
// It never errors: degraded program or profile data earns documented
// partial credit instead.
func (m *Matcher) Generate(org model.Organization, programs []model.Program, opts Options) []model.MatchResult {
	opts = opts.withDefaults()
	now := m.Now()

	var results []model.MatchResult
	for _, p := range programs {
		if !opts.IncludeExpired && (p.Status != model.ProgramStatusActive || p.Expired(now)) {
			continue
		}

		res, ok := m.scoreOne(org, p, now)
		if !ok {
			continue // hard gate failed; never surfaced
		}
		if res.Score < opts.MinScore {
			continue
		}
		results = append(results, res)
	}

	// Eligibility level dominates; normalized score breaks ties within a
	// level. Stable sort keeps input order for equal keys, so identical
	// inputs always produce identical output.
	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := eligibilityRank(results[a].Eligibility), eligibilityRank(results[b].Eligibility)
		if ra != rb {
			return ra < rb
		}
		return results[a].Score > results[b].Score
	})

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	zap.L().Debug("matcher: run complete",
		zap.String("organization", org.ID),
		zap.Int("programs", len(programs)),
		zap.Int("results", len(results)),
	)
	return results
}

// scoreOne evaluates a single program. The second return is false when a
// hard gate excluded the program.
func (m *Matcher) scoreOne(org model.Organization, p model.Program, now time.Time) (model.MatchResult, bool) {
	gate := evaluateGates(org, p)
	if !gate.eligible {
		return model.MatchResult{
			ProgramID:      p.ID,
			ProgramTitle:   p.Title,
			OrganizationID: org.ID,
			Eligibility:    model.EligibilityNone,
			FailedCriteria: gate.failed,
		}, false
	}

	warnings := softFlags(org, p)

	var g gaps
	w := m.cfg.Weights
	breakdown := model.ScoreBreakdown{
		CompanyScale:    scoreCompanyScale(org, p, w.CompanyScale, &g),
		Revenue:         scoreRevenue(org, p, w.Revenue, &g),
		Employee:        scoreEmployee(org, p, w.Employee, &g),
		BusinessAge:     scoreBusinessAge(org, p, w.BusinessAge, &g, now),
		Region:          scoreRegion(org, p, w.Region),
		Certification:   scoreCertification(p, w.Certification),
		BizType:         scoreBizType(org, p, w.BizType, now),
		Lifecycle:       scoreLifecycle(org, p, w.Lifecycle, now),
		IndustryContent: scoreIndustryContent(org, p, w.IndustryContent, &g, m.cls),
		Deadline:        scoreDeadline(p, w.Deadline, now),
		Financial:       scoreFinancial(org, p, w.Financial, &g),
		SupportType:     scoreSupportType(org, p, w.SupportType, now),
	}

	raw := breakdown.Sum()
	score := int(math.Round(raw / m.cfg.RawCeiling * 100))

	eligibility := model.EligibilityFull
	if len(warnings) > 0 {
		eligibility = model.EligibilityConditional
	}

	res := model.MatchResult{
		ProgramID:      p.ID,
		ProgramTitle:   p.Title,
		OrganizationID: org.ID,
		Score:          score,
		RawScore:       raw,
		Eligibility:    eligibility,
		Breakdown:      breakdown,
		MetCriteria:    gate.met,
	}
	res.Explanation = m.explain(res, p, warnings, g.fields, now)
	return res, true
}

func eligibilityRank(e model.Eligibility) int {
	switch e {
	case model.EligibilityFull:
		return 0
	case model.EligibilityConditional:
		return 1
	default:
		return 2
	}
}
