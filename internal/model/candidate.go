package model

import "time"

// CandidateStatus represents the lifecycle state of a scraped announcement.
type CandidateStatus string

const (
	CandidateStatusActive    CandidateStatus = "active"
	CandidateStatusClosed    CandidateStatus = "closed"
	CandidateStatusDraft     CandidateStatus = "draft"
	CandidateStatusDuplicate CandidateStatus = "duplicate"
)

// Candidate is a scraped program announcement considered for duplicate
// detection. Records are read-only for the duration of a detection run.
type Candidate struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	BusinessKey  string          `json:"business_key,omitempty"` // external announcement sequence (pblancSeq)
	ContentHash  string          `json:"content_hash,omitempty"`
	Status       CandidateStatus `json:"status"`
	Completeness Completeness    `json:"completeness"`
	MatchCount   int             `json:"match_count"` // dependent match rows referencing this record
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Completeness summarizes how many of a candidate's fields are populated.
type Completeness struct {
	Percent int `json:"percent"` // 0-100
	Filled  int `json:"filled"`
	Total   int `json:"total"`
}
