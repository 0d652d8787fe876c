// Package monitoring aggregates point-in-time operational statistics from
// the store for the stats API and CLI.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bizmatch/match-cli/internal/model"
	"github.com/bizmatch/match-cli/internal/store"
)

// Snapshot holds a point-in-time view of the corpus and recent activity.
type Snapshot struct {
	// Candidate corpus.
	CandidatesActive    int `json:"candidates_active"`
	CandidatesDuplicate int `json:"candidates_duplicate"`

	// Program corpus.
	ProgramsActive       int `json:"programs_active"`
	ProgramsExpiringSoon int `json:"programs_expiring_soon"` // deadline within 7 days
	ProgramsNoDeadline   int `json:"programs_no_deadline"`

	// Match runs within the lookback window.
	RunsRecent     int     `json:"runs_recent"`
	ResultsRecent  int     `json:"results_recent"`
	AvgTopScore    float64 `json:"avg_top_score"`
	EmptyRunsCount int     `json:"empty_runs_count"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers statistics from the store.
type Collector struct {
	store store.Store

	// Now is swappable for tests.
	Now func() time.Time
}

// NewCollector creates a statistics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st, Now: time.Now}
}

// listCap bounds how many rows a single snapshot inspects.
const listCap = 10000

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.Now().UTC()
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	active, err := c.store.ListCandidates(ctx, store.CandidateFilter{
		Status: model.CandidateStatusActive, Limit: listCap,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list active candidates")
	}
	snap.CandidatesActive = len(active)

	dups, err := c.store.ListCandidates(ctx, store.CandidateFilter{
		Status: model.CandidateStatusDuplicate, Limit: listCap,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list duplicate candidates")
	}
	snap.CandidatesDuplicate = len(dups)

	programs, err := c.store.ListPrograms(ctx, store.ProgramFilter{
		Status: model.ProgramStatusActive, Limit: listCap,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list programs")
	}
	snap.ProgramsActive = len(programs)
	soon := now.Add(7 * 24 * time.Hour)
	for _, p := range programs {
		switch {
		case p.Deadline == nil:
			snap.ProgramsNoDeadline++
		case !p.Deadline.Before(now) && p.Deadline.Before(soon):
			snap.ProgramsExpiringSoon++
		}
	}

	runs, err := c.store.ListMatchRuns(ctx, "", listCap)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list match runs")
	}

	var topSum float64
	var scored int
	for _, r := range runs {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		snap.RunsRecent++
		snap.ResultsRecent += r.ResultCount
		if r.ResultCount == 0 {
			snap.EmptyRunsCount++
			continue
		}
		best := 0
		for _, res := range r.Results {
			if res.Score > best {
				best = res.Score
			}
		}
		topSum += float64(best)
		scored++
	}
	if scored > 0 {
		snap.AvgTopScore = topSum / float64(scored)
	}

	return snap, nil
}
