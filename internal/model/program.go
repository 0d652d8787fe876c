package model

import "time"

// ProgramStatus represents the publication state of a program.
type ProgramStatus string

const (
	ProgramStatusActive   ProgramStatus = "active"
	ProgramStatusClosed   ProgramStatus = "closed"
	ProgramStatusUpcoming ProgramStatus = "upcoming"
)

// Program is a funding/support offering. Every eligibility field is optional:
// in production data most programs omit most of them, and an absent field
// means "no restriction" for gates and "partial credit" for scoring.
type Program struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	SupportContent string        `json:"support_content,omitempty"`
	TargetIndustry string        `json:"target_industry,omitempty"`
	Status         ProgramStatus `json:"status"`
	Deadline       *time.Time    `json:"deadline,omitempty"`

	// Eligibility gates.
	ScaleCodes      []string `json:"scale_codes,omitempty"`      // allowed company-scale codes
	RequiredCerts   []string `json:"required_certs,omitempty"`   // required certification codes
	RegionCodes     []string `json:"region_codes,omitempty"`     // allowed region codes
	PreStartupOnly  bool     `json:"pre_startup_only"`
	RestartOnly     bool     `json:"restart_only"`
	FemaleOwnerOnly bool     `json:"female_owner_only"`
	CEOAgeMin       *int     `json:"ceo_age_min,omitempty"`
	CEOAgeMax       *int     `json:"ceo_age_max,omitempty"`

	// Target profile, scored but never gating.
	RevenueRanges   []string `json:"revenue_ranges,omitempty"`   // target RevenueRange buckets
	EmployeeBuckets []string `json:"employee_buckets,omitempty"` // target EmployeeBucket buckets
	BusinessAgeMin  *int     `json:"business_age_min,omitempty"` // years
	BusinessAgeMax  *int     `json:"business_age_max,omitempty"` // years

	// Relevance attributes.
	BizType         string   `json:"biz_type,omitempty"` // business-type category, e.g. 창업, 기술개발
	LifecycleTags   []string `json:"lifecycle_tags,omitempty"`
	SupportType     string   `json:"support_type,omitempty"` // 융자, 출연, 보조금, ...
	SupportAmount   *int64   `json:"support_amount,omitempty"` // KRW
	InterestRateMin *float64 `json:"interest_rate_min,omitempty"`
	InterestRateMax *float64 `json:"interest_rate_max,omitempty"`
}

// Expired reports whether the program deadline has passed as of now.
// Programs without a deadline never expire.
func (p Program) Expired(now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(now)
}
