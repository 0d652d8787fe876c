package matcher

import (
	"fmt"
	"time"

	"github.com/bizmatch/match-cli/internal/codes"
	"github.com/bizmatch/match-cli/internal/model"
)

// gateResult carries the outcome of the hard-gate evaluation.
type gateResult struct {
	eligible bool
	met      []string
	failed   []string
}

// evaluateGates runs the hard eligibility gates. Any failure short-circuits
// the program to INELIGIBLE with score 0; such results are produced
// internally but never surfaced to the caller.
func evaluateGates(org model.Organization, p model.Program) gateResult {
	res := gateResult{eligible: true}

	// Large enterprises are categorically excluded wherever a program
	// restricts scale without listing the large-enterprise code.
	if org.Scale == model.ScaleLarge && codes.ExcludesLarge(p.ScaleCodes) {
		res.eligible = false
		res.failed = append(res.failed, "대기업 참여 불가 공고")
		return res
	}

	// Startup-only programs exclude established non-startup organizations.
	if codes.StartupOnly(p.ScaleCodes) && org.Scale != model.ScaleStartup {
		res.eligible = false
		res.failed = append(res.failed, "창업기업 전용 공고")
		return res
	}

	if cert := codes.CheckCertifications(org.Certifications, p.RequiredCerts); !cert.Eligible {
		res.eligible = false
		res.met = append(res.met, cert.Met...)
		res.failed = append(res.failed, cert.Missing...)
		return res
	} else {
		res.met = append(res.met, cert.Met...)
	}

	if region := codes.CheckRegion(org.Regions, p.RegionCodes); !region.Eligible {
		res.eligible = false
		res.failed = append(res.failed, region.Missing...)
		return res
	} else {
		res.met = append(res.met, region.Met...)
	}

	// Pre-startup-only programs exclude anyone with an established business.
	if p.PreStartupOnly && org.EstablishedAt != nil {
		res.eligible = false
		res.failed = append(res.failed, "예비창업자 전용 공고")
		return res
	}

	return res
}

// softFlags evaluates conditions that downgrade the eligibility level to
// CONDITIONALLY_ELIGIBLE without excluding the program.
func softFlags(org model.Organization, p model.Program) []string {
	var warnings []string

	if p.RestartOnly && !org.IsRestart {
		warnings = append(warnings, "재도전(재창업) 기업 대상 공고입니다")
	}
	if p.FemaleOwnerOnly && !org.FemaleOwned {
		warnings = append(warnings, "여성기업 대상 공고입니다")
	}
	if p.CEOAgeMin != nil || p.CEOAgeMax != nil {
		age := codes.CheckCEOAge(org.CEOAge, p.CEOAgeMin, p.CEOAgeMax)
		if !age.Eligible || len(age.Missing) > 0 {
			warnings = append(warnings, ceoAgeWarning(p.CEOAgeMin, p.CEOAgeMax))
		}
	}

	return warnings
}

func ceoAgeWarning(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("대표자 연령 제한 공고입니다 (만 %d~%d세)", *min, *max)
	case min != nil:
		return fmt.Sprintf("대표자 연령 제한 공고입니다 (만 %d세 이상)", *min)
	default:
		return fmt.Sprintf("대표자 연령 제한 공고입니다 (만 %d세 이하)", *max)
	}
}

// daysUntil returns whole days from now to the deadline, negative when past.
func daysUntil(deadline, now time.Time) int {
	return int(deadline.Sub(now).Hours() / 24)
}
