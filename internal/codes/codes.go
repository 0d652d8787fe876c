// Package codes translates organization attributes into the categorical codes
// used by program eligibility fields, and evaluates set-membership and range
// eligibility. Every check returns a verdict plus human-readable met/missing
// lists; none of them error on absent data.
package codes

import (
	"fmt"
	"strings"

	"github.com/bizmatch/match-cli/internal/model"
)

// Program scale codes as they appear in announcement data.
const (
	ScaleCodeStartup  = "CMPNY_SCL_01" // 창업기업
	ScaleCodeSmall    = "CMPNY_SCL_02" // 소기업
	ScaleCodeMedium   = "CMPNY_SCL_03" // 중기업
	ScaleCodeMidTier  = "CMPNY_SCL_04" // 중견기업
	ScaleCodeLarge    = "CMPNY_SCL_05" // 대기업
)

// Nationwide region codes. Announcements encode "open to all regions" either
// as the numeric code or the literal word.
const (
	RegionNationwide       = "00000"
	RegionNationwideHangul = "전국"
)

// scaleToCode maps organization scale tiers to announcement scale codes.
var scaleToCode = map[model.CompanyScale]string{
	model.ScaleStartup: ScaleCodeStartup,
	model.ScaleSmall:   ScaleCodeSmall,
	model.ScaleMedium:  ScaleCodeMedium,
	model.ScaleMidTier: ScaleCodeMidTier,
	model.ScaleLarge:   ScaleCodeLarge,
}

// scaleLabels are display names for warnings and criteria lists.
var scaleLabels = map[model.CompanyScale]string{
	model.ScaleStartup: "창업기업",
	model.ScaleSmall:   "소기업",
	model.ScaleMedium:  "중기업",
	model.ScaleMidTier: "중견기업",
	model.ScaleLarge:   "대기업",
}

// ScaleCode returns the announcement scale code for an organization tier.
// Unknown tiers return "".
func ScaleCode(scale model.CompanyScale) string {
	return scaleToCode[scale]
}

// ScaleLabel returns the Korean display label for a scale tier.
func ScaleLabel(scale model.CompanyScale) string {
	if l, ok := scaleLabels[scale]; ok {
		return l
	}
	return string(scale)
}

// CheckResult is the outcome of one eligibility check.
type CheckResult struct {
	Eligible bool
	Met      []string
	Missing  []string
}

// CheckScale verifies the organization's scale code against a program's
// allowed list. An empty allowed list means no restriction.
func CheckScale(scale model.CompanyScale, allowed []string) CheckResult {
	if len(allowed) == 0 {
		return CheckResult{Eligible: true}
	}
	code := ScaleCode(scale)
	for _, a := range allowed {
		if strings.TrimSpace(a) == code && code != "" {
			return CheckResult{
				Eligible: true,
				Met:      []string{fmt.Sprintf("기업규모 요건 충족 (%s)", ScaleLabel(scale))},
			}
		}
	}
	return CheckResult{
		Eligible: false,
		Missing:  []string{fmt.Sprintf("기업규모 요건 미충족 (보유: %s)", ScaleLabel(scale))},
	}
}

// StartupOnly reports whether the allowed scale list restricts to exactly the
// startup code.
func StartupOnly(allowed []string) bool {
	return len(allowed) == 1 && strings.TrimSpace(allowed[0]) == ScaleCodeStartup
}

// ExcludesLarge reports whether an allowed scale list is non-empty and omits
// the large-enterprise code.
func ExcludesLarge(allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if strings.TrimSpace(a) == ScaleCodeLarge {
			return false
		}
	}
	return true
}

// CheckCertifications verifies that every required certification code is held.
// Comparison is case-insensitive on trimmed codes.
func CheckCertifications(held []string, required []string) CheckResult {
	if len(required) == 0 {
		return CheckResult{Eligible: true}
	}

	heldSet := make(map[string]bool, len(held))
	for _, h := range held {
		heldSet[strings.ToUpper(strings.TrimSpace(h))] = true
	}

	res := CheckResult{Eligible: true}
	for _, r := range required {
		code := strings.ToUpper(strings.TrimSpace(r))
		if code == "" {
			continue
		}
		if heldSet[code] {
			res.Met = append(res.Met, fmt.Sprintf("필수 인증 보유 (%s)", strings.TrimSpace(r)))
		} else {
			res.Eligible = false
			res.Missing = append(res.Missing, fmt.Sprintf("필수 인증 미보유 (%s)", strings.TrimSpace(r)))
		}
	}
	return res
}

// IsNationwide reports whether a program region list is open to all regions:
// either empty or containing a nationwide code.
func IsNationwide(programRegions []string) bool {
	if len(programRegions) == 0 {
		return true
	}
	for _, r := range programRegions {
		r = strings.TrimSpace(r)
		if r == RegionNationwide || r == RegionNationwideHangul {
			return true
		}
	}
	return false
}

// CheckRegion verifies that at least one organization region satisfies the
// program's regional restriction. Nationwide programs always pass.
func CheckRegion(orgRegions []string, programRegions []string) CheckResult {
	if IsNationwide(programRegions) {
		return CheckResult{Eligible: true}
	}

	progSet := make(map[string]bool, len(programRegions))
	for _, r := range programRegions {
		progSet[strings.TrimSpace(r)] = true
	}
	for _, r := range orgRegions {
		r = strings.TrimSpace(r)
		if progSet[r] {
			return CheckResult{
				Eligible: true,
				Met:      []string{fmt.Sprintf("지역 요건 충족 (%s)", r)},
			}
		}
	}
	return CheckResult{
		Eligible: false,
		Missing:  []string{"지역 요건 미충족"},
	}
}

// CheckCEOAge verifies a CEO age against optional program bounds. A nil age
// with bounds present is not a failure here; the matcher surfaces it as a
// soft warning instead.
func CheckCEOAge(age *int, min, max *int) CheckResult {
	if min == nil && max == nil {
		return CheckResult{Eligible: true}
	}
	if age == nil {
		return CheckResult{Eligible: true, Missing: []string{"대표자 연령 정보 없음"}}
	}
	if min != nil && *age < *min {
		return CheckResult{Eligible: false, Missing: []string{fmt.Sprintf("대표자 연령 요건 미충족 (%d세 미만)", *min)}}
	}
	if max != nil && *age > *max {
		return CheckResult{Eligible: false, Missing: []string{fmt.Sprintf("대표자 연령 요건 미충족 (%d세 초과)", *max)}}
	}
	return CheckResult{Eligible: true, Met: []string{"대표자 연령 요건 충족"}}
}
