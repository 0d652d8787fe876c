package model

// Eligibility is the qualification level of a match result.
type Eligibility string

const (
	EligibilityFull        Eligibility = "FULLY_ELIGIBLE"
	EligibilityConditional Eligibility = "CONDITIONALLY_ELIGIBLE"
	EligibilityNone        Eligibility = "INELIGIBLE"
)

// ScoreBreakdown holds the twelve raw sub-factor scores. Their sum never
// exceeds 150; the normalized display score is round(sum/150*100).
type ScoreBreakdown struct {
	CompanyScale    float64 `json:"company_scale"`    // max 20
	Revenue         float64 `json:"revenue"`          // max 15
	Employee        float64 `json:"employee"`         // max 10
	BusinessAge     float64 `json:"business_age"`     // max 10
	Region          float64 `json:"region"`           // max 10
	Certification   float64 `json:"certification"`    // max 5
	BizType         float64 `json:"biz_type"`         // max 28
	Lifecycle       float64 `json:"lifecycle"`        // max 2
	IndustryContent float64 `json:"industry_content"` // max 30
	Deadline        float64 `json:"deadline"`         // max 15
	Financial       float64 `json:"financial"`        // max 2
	SupportType     float64 `json:"support_type"`     // max 3
}

// Sum returns the raw total across all sub-factors.
func (b ScoreBreakdown) Sum() float64 {
	return b.CompanyScale + b.Revenue + b.Employee + b.BusinessAge +
		b.Region + b.Certification + b.BizType + b.Lifecycle +
		b.IndustryContent + b.Deadline + b.Financial + b.SupportType
}

// Explanation is the generated human-readable account of a match.
type Explanation struct {
	Summary         string   `json:"summary"`
	Reasons         []string `json:"reasons,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// MatchResult pairs one program with one organization profile.
type MatchResult struct {
	ProgramID      string         `json:"program_id"`
	ProgramTitle   string         `json:"program_title"`
	OrganizationID string         `json:"organization_id"`
	Score          int            `json:"score"` // normalized 0-100
	RawScore       float64        `json:"raw_score"`
	Eligibility    Eligibility    `json:"eligibility"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	MetCriteria    []string       `json:"met_criteria,omitempty"`
	FailedCriteria []string       `json:"failed_criteria,omitempty"`
	Explanation    Explanation    `json:"explanation"`
}
