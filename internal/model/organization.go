package model

import "time"

// CompanyScale is the size tier of an organization.
type CompanyScale string

const (
	ScaleStartup CompanyScale = "STARTUP"
	ScaleSmall   CompanyScale = "SMALL_BUSINESS"
	ScaleMedium  CompanyScale = "MEDIUM_ENTERPRISE"
	ScaleMidTier CompanyScale = "MID_TIER"
	ScaleLarge   CompanyScale = "LARGE_ENTERPRISE"
)

// RevenueRange buckets annual revenue in KRW.
type RevenueRange string

const (
	RevenueUnder100M RevenueRange = "UNDER_100M"
	Revenue100MTo1B  RevenueRange = "100M_TO_1B"
	Revenue1BTo5B    RevenueRange = "1B_TO_5B"
	Revenue5BTo10B   RevenueRange = "5B_TO_10B"
	RevenueOver10B   RevenueRange = "OVER_10B"
)

// EmployeeBucket buckets headcount.
type EmployeeBucket string

const (
	EmployeesUnder10  EmployeeBucket = "UNDER_10"
	Employees10To50   EmployeeBucket = "10_TO_50"
	Employees50To100  EmployeeBucket = "50_TO_100"
	Employees100To300 EmployeeBucket = "100_TO_300"
	EmployeesOver300  EmployeeBucket = "OVER_300"
)

// Organization is a company profile to be matched against programs.
// Categorical attributes are lookup keys against program eligibility codes;
// zero values mean "not provided" and degrade to partial credit, never errors.
type Organization struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Scale          CompanyScale   `json:"scale,omitempty"`
	RevenueRange   RevenueRange   `json:"revenue_range,omitempty"`
	Revenue        *int64         `json:"revenue,omitempty"` // annual revenue in KRW, if known exactly
	EmployeeBucket EmployeeBucket `json:"employee_bucket,omitempty"`
	EstablishedAt  *time.Time     `json:"established_at,omitempty"` // nil = pre-startup
	Regions        []string       `json:"regions,omitempty"`        // operating region codes
	Certifications []string       `json:"certifications,omitempty"` // held certification codes
	Industry       string         `json:"industry,omitempty"`
	RnDExperience  bool           `json:"rnd_experience"`
	IsRestart      bool           `json:"is_restart"`  // re-entry after business closure
	FemaleOwned    bool           `json:"female_owned"`
	CEOAge         *int           `json:"ceo_age,omitempty"`
}

// BusinessAgeYears returns full years since establishment, or -1 when the
// organization has no establishment date (pre-startup).
func (o Organization) BusinessAgeYears(now time.Time) int {
	if o.EstablishedAt == nil {
		return -1
	}
	years := now.Year() - o.EstablishedAt.Year()
	anniv := o.EstablishedAt.AddDate(years, 0, 0)
	if anniv.After(now) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}
