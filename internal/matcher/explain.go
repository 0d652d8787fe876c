package matcher

import (
	"fmt"
	"time"

	"github.com/bizmatch/match-cli/internal/model"
)

// reasonThreshold is the share of a factor's maximum a score must reach
// before the factor is called out as a strength.
const reasonThreshold = 0.7

// explain renders the Korean-language account of one match result.
// warnings are the soft-flag messages from the gate pass; gapFields names
// the organization profile fields whose absence suppressed a factor.
func (m *Matcher) explain(res model.MatchResult, p model.Program, warnings, gapFields []string, now time.Time) model.Explanation {
	ex := model.Explanation{
		Summary:  summaryLine(res.Score, p.Title),
		Warnings: append([]string(nil), warnings...),
	}

	ex.Reasons = factorReasons(res.Breakdown, m.cfg.Weights)

	if p.Deadline != nil {
		if d := daysUntil(*p.Deadline, now); d >= 0 && d < 7 {
			ex.Warnings = append(ex.Warnings, fmt.Sprintf("마감까지 %d일 남았습니다 (D-%d). 서둘러 신청을 준비하세요.", d, d))
		}
	}

	if len(gapFields) > 0 {
		ex.Warnings = append(ex.Warnings,
			fmt.Sprintf("기업 프로필에 %s 정보가 없어 일부 항목이 기본 점수로 평가되었습니다.", joinKorean(gapFields)))
		ex.Recommendations = append(ex.Recommendations,
			fmt.Sprintf("프로필에 %s 정보를 입력하면 더 정확한 추천을 받을 수 있습니다.", joinKorean(gapFields)))
	}

	if res.Eligibility == model.EligibilityConditional {
		ex.Recommendations = append(ex.Recommendations,
			"조건부 적합 공고입니다. 신청 전 공고 본문의 신청 자격 요건을 반드시 확인하세요.")
	}

	return ex
}

func summaryLine(score int, title string) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("'%s'은(는) 귀사와 매우 적합한 공고입니다 (적합도 %d점).", title, score)
	case score >= 65:
		return fmt.Sprintf("'%s'은(는) 귀사에 적합한 공고입니다 (적합도 %d점).", title, score)
	case score >= 50:
		return fmt.Sprintf("'%s'은(는) 검토해 볼 만한 공고입니다 (적합도 %d점).", title, score)
	default:
		return fmt.Sprintf("'%s'은(는) 참고용으로 확인해 보세요 (적합도 %d점).", title, score)
	}
}

// factorReasons emits one line per strong factor, in fixed breakdown order.
func factorReasons(b model.ScoreBreakdown, w Weights) []string {
	type entry struct {
		score  float64
		max    float64
		reason string
	}
	entries := []entry{
		{b.CompanyScale, w.CompanyScale.Max, "기업 규모가 공고 대상 조건에 부합합니다."},
		{b.Revenue, w.Revenue.Max, "매출 규모가 공고 대상 조건에 부합합니다."},
		{b.Employee, w.Employee.Max, "종업원 규모가 공고 대상 조건에 부합합니다."},
		{b.BusinessAge, w.BusinessAge.Max, "업력이 공고 대상 조건에 부합합니다."},
		{b.Region, w.Region.Max, "사업장 소재지가 공고 지역 요건에 부합합니다."},
		{b.Certification, w.Certification.Max, "공고가 요구하는 인증을 보유하고 있습니다."},
		{b.BizType, w.BizType.Max, "사업 유형이 귀사의 성격과 잘 맞습니다."},
		{b.Lifecycle, w.Lifecycle.Max, "기업 성장 단계가 공고 대상 단계와 일치합니다."},
		{b.IndustryContent, w.IndustryContent.Max, "공고 내용이 귀사의 업종과 관련성이 높습니다."},
		{b.Deadline, w.Deadline.Max, "접수 기간 내 신청 가능한 공고입니다."},
		{b.Financial, w.Financial.Max, "지원 금액 규모가 귀사 재무 규모에 적절합니다."},
		{b.SupportType, w.SupportType.Max, "지원 방식이 귀사 상황에 적합합니다."},
	}

	var out []string
	for _, e := range entries {
		if e.max <= 0 {
			continue
		}
		if e.score >= e.max*reasonThreshold {
			out = append(out, e.reason)
		}
	}
	return out
}

func joinKorean(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := items[0]
	for _, it := range items[1:] {
		out += ", " + it
	}
	return out
}
