// Package store persists announcement candidates, funding programs,
// organization profiles, and match runs. Two backends implement the same
// interface: PostgreSQL for server deployments and SQLite for single-binary
// CLI use.
package store

import (
	"context"
	"time"

	"github.com/bizmatch/match-cli/internal/model"
)

// CandidateFilter specifies criteria for listing candidates.
type CandidateFilter struct {
	Status model.CandidateStatus `json:"status,omitempty"`
	Limit  int                   `json:"limit,omitempty"`
	Offset int                   `json:"offset,omitempty"`
}

// ProgramFilter specifies criteria for listing programs.
type ProgramFilter struct {
	Status model.ProgramStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// MatchRun is one persisted matching run for an organization.
type MatchRun struct {
	ID             string              `json:"id"`
	OrganizationID string              `json:"organization_id"`
	Results        []model.MatchResult `json:"results"`
	ResultCount    int                 `json:"result_count"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Store defines the persistence interface. Get methods return (nil, nil)
// when the row does not exist.
type Store interface {
	// Candidates
	UpsertCandidates(ctx context.Context, records []model.Candidate) (int64, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.Candidate, error)
	MarkDuplicates(ctx context.Context, keepID string, duplicateIDs []string) (int64, error)

	// Programs
	UpsertPrograms(ctx context.Context, programs []model.Program) (int64, error)
	GetProgram(ctx context.Context, id string) (*model.Program, error)
	ListPrograms(ctx context.Context, filter ProgramFilter) ([]model.Program, error)

	// Organizations
	SaveOrganization(ctx context.Context, org model.Organization) error
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)

	// Match runs
	SaveMatchRun(ctx context.Context, orgID string, results []model.MatchResult) (*MatchRun, error)
	GetMatchRun(ctx context.Context, runID string) (*MatchRun, error)
	ListMatchRuns(ctx context.Context, orgID string, limit int) ([]MatchRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
