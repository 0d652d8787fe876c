package matcher

import (
	"math"
	"strings"
	"time"

	"github.com/bizmatch/match-cli/internal/classify"
	"github.com/bizmatch/match-cli/internal/codes"
	"github.com/bizmatch/match-cli/internal/model"
)

// Every factor function returns a value within [0, Max] and never errors:
// a program without data for a dimension earns that factor's partial credit,
// and missing organization data degrades the same way while recording which
// profile field suppressed the score.

// gaps tracks organization profile fields whose absence suppressed a factor.
type gaps struct {
	fields []string
}

func (g *gaps) add(field string) {
	for _, f := range g.fields {
		if f == field {
			return
		}
	}
	g.fields = append(g.fields, field)
}

func scoreCompanyScale(org model.Organization, p model.Program, w FactorWeight, g *gaps) float64 {
	if len(p.ScaleCodes) == 0 {
		return w.Partial
	}
	if org.Scale == "" {
		g.add("기업규모")
		return w.Partial
	}
	if codes.CheckScale(org.Scale, p.ScaleCodes).Eligible {
		return w.Max
	}
	return 0
}

func scoreRevenue(org model.Organization, p model.Program, w FactorWeight, g *gaps) float64 {
	if len(p.RevenueRanges) == 0 {
		return w.Partial
	}
	if org.RevenueRange == "" {
		g.add("매출액")
		return w.Partial
	}
	for _, r := range p.RevenueRanges {
		if strings.TrimSpace(r) == string(org.RevenueRange) {
			return w.Max
		}
	}
	return 0
}

func scoreEmployee(org model.Organization, p model.Program, w FactorWeight, g *gaps) float64 {
	if len(p.EmployeeBuckets) == 0 {
		return w.Partial
	}
	if org.EmployeeBucket == "" {
		g.add("상시근로자 수")
		return w.Partial
	}
	for _, b := range p.EmployeeBuckets {
		if strings.TrimSpace(b) == string(org.EmployeeBucket) {
			return w.Max
		}
	}
	return 0
}

func scoreBusinessAge(org model.Organization, p model.Program, w FactorWeight, g *gaps, now time.Time) float64 {
	if p.BusinessAgeMin == nil && p.BusinessAgeMax == nil {
		return w.Partial
	}
	age := org.BusinessAgeYears(now)
	if age < 0 {
		g.add("설립일")
		return w.Partial
	}
	if p.BusinessAgeMin != nil && age < *p.BusinessAgeMin {
		return 0
	}
	if p.BusinessAgeMax != nil && age > *p.BusinessAgeMax {
		return 0
	}
	return w.Max
}

// scoreRegion grants full credit only for matching an actual regional
// restriction; nationwide programs are "open", not "matched", and earn the
// partial value.
func scoreRegion(org model.Organization, p model.Program, w FactorWeight) float64 {
	if codes.IsNationwide(p.RegionCodes) {
		return w.Partial
	}
	if codes.CheckRegion(org.Regions, p.RegionCodes).Eligible {
		return w.Max
	}
	return 0
}

// scoreCertification is bonus-only: full marks when the program requires
// certifications (the hard gate already verified they are held), nothing
// otherwise.
func scoreCertification(p model.Program, w FactorWeight) float64 {
	if len(p.RequiredCerts) == 0 {
		return w.Partial
	}
	return w.Max
}

func scoreBizType(org model.Organization, p model.Program, w FactorWeight, now time.Time) float64 {
	t := strings.ToLower(strings.TrimSpace(p.BizType))
	if t == "" {
		return w.Partial
	}
	half := math.Round(w.Max / 2)

	switch {
	case containsAny(t, "창업", "예비창업", "startup"):
		if isStartupLike(org, now) {
			return w.Max
		}
		return w.Partial
	case containsAny(t, "기술", "r&d", "연구", "개발"):
		if org.RnDExperience {
			return w.Max
		}
		return half
	case containsAny(t, "재도전", "재창업"):
		if org.IsRestart {
			return w.Max
		}
		return w.Partial
	case containsAny(t, "수출", "글로벌", "해외"):
		if org.EstablishedAt != nil {
			return half
		}
		return w.Partial
	case containsAny(t, "경영", "자금", "안정"):
		if org.EstablishedAt != nil {
			return half
		}
		return w.Partial
	case containsAny(t, "인력", "고용", "일자리"):
		if org.EmployeeBucket != "" {
			return half
		}
		return w.Partial
	default:
		return half
	}
}

func scoreLifecycle(org model.Organization, p model.Program, w FactorWeight, now time.Time) float64 {
	stage := lifecycleStage(org, now)

	if len(p.LifecycleTags) > 0 {
		for _, tag := range p.LifecycleTags {
			if strings.Contains(strings.TrimSpace(tag), stage) {
				return w.Max
			}
		}
		return 0
	}

	// No tags: a startup-category program still signals an early-stage fit.
	t := strings.ToLower(p.BizType)
	if containsAny(t, "창업", "startup") && (stage == "예비" || stage == "창업") {
		return w.Max
	}
	return w.Partial
}

// lifecycleStage buckets an organization into the announcement lifecycle
// vocabulary: 예비 (pre-startup), 창업 (<7y), 성장 (<10y), 성숙 (10y+).
func lifecycleStage(org model.Organization, now time.Time) string {
	age := org.BusinessAgeYears(now)
	switch {
	case age < 0:
		return "예비"
	case age < 7:
		return "창업"
	case age < 10:
		return "성장"
	default:
		return "성숙"
	}
}

func scoreIndustryContent(org model.Organization, p model.Program, w FactorWeight, g *gaps, cls *classify.Classifier) float64 {
	if org.Industry == "" {
		g.add("업종")
		return w.Partial
	}
	_, rel := cls.ClassifyProgram(org.Industry, p.Title, p.Description, p.SupportContent, p.TargetIndustry)
	if rel < 0 {
		// Insufficient text to classify the program.
		return w.Partial
	}
	return w.Max * rel
}

// scoreDeadline steps on days-until-deadline. The intermediate steps are
// fixed fractions of the span between partial and max so an overridden
// rubric keeps its shape.
func scoreDeadline(p model.Program, w FactorWeight, now time.Time) float64 {
	if p.Deadline == nil {
		return w.Partial
	}
	days := daysUntil(*p.Deadline, now)
	span := w.Max - w.Partial
	switch {
	case days < 0:
		return w.Partial
	case days <= 7:
		return w.Max
	case days <= 30:
		return math.Round(w.Partial + span*0.6)
	case days <= 60:
		return math.Round(w.Partial + span*0.3)
	default:
		return w.Partial
	}
}

// scoreFinancial relates the support amount to the organization's revenue.
// A program offering between 1% and 200% of annual revenue is a plausible
// fit; wildly disproportionate amounts earn half the partial value.
func scoreFinancial(org model.Organization, p model.Program, w FactorWeight, g *gaps) float64 {
	if p.SupportAmount == nil {
		return w.Partial
	}
	if org.Revenue == nil {
		g.add("매출액")
		return w.Partial
	}
	if *org.Revenue <= 0 {
		return w.Partial
	}
	ratio := float64(*p.SupportAmount) / float64(*org.Revenue)
	if ratio >= 0.01 && ratio <= 2.0 {
		return w.Max
	}
	return w.Partial / 2
}

func scoreSupportType(org model.Organization, p model.Program, w FactorWeight, now time.Time) float64 {
	t := strings.TrimSpace(p.SupportType)
	if t == "" {
		return w.Partial
	}
	moderate := math.Round(w.Max * 2 / 3)

	switch {
	case containsAny(t, "융자", "대출", "보증"):
		// Loan-type support presumes repayment capacity.
		if org.Revenue != nil && *org.Revenue > 0 {
			return w.Max
		}
		return w.Partial
	case containsAny(t, "출연", "보조", "지원금", "바우처"):
		if isStartupLike(org, now) || org.RnDExperience {
			return w.Max
		}
		return moderate
	default:
		return moderate
	}
}

// isStartupLike reports whether the organization is a startup by tier,
// pre-startup, or under seven years old.
func isStartupLike(org model.Organization, now time.Time) bool {
	if org.Scale == model.ScaleStartup {
		return true
	}
	age := org.BusinessAgeYears(now)
	return age < 0 || age < 7
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
