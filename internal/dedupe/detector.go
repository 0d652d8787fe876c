// Package dedupe groups announcement candidates into duplicate clusters using
// three escalating signals: exact content fingerprint, shared business key,
// and approximate title similarity with transitive clustering.
package dedupe

import (
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/bizmatch/match-cli/internal/model"
)

// DefaultSimilarityThreshold is the minimum normalized title similarity for
// the approximate tier.
const DefaultSimilarityThreshold = 0.90

// Reason tags which signal produced a duplicate group.
type Reason string

const (
	ReasonContentHash     Reason = "content-hash"
	ReasonBusinessKey     Reason = "pblancSeq"
	ReasonTitleSimilarity Reason = "titleSimilarity"
)

// Options configures a detection run.
type Options struct {
	// EnableBusinessKeyTier turns on tier 2 grouping by business key.
	EnableBusinessKeyTier bool
	// SimilarityThreshold is the tier 3 cutoff; 0 means DefaultSimilarityThreshold.
	SimilarityThreshold float64
}

// Group is a set of two or more candidates sharing a detection signal.
type Group struct {
	Reason     Reason            `json:"reason"`
	Similarity float64           `json:"similarity"` // 1.0 for exact tiers, min pairwise for tier 3
	Records    []model.Candidate `json:"records"`
	KeepID     string            `json:"keep_id"`
}

// Summary aggregates a detection run.
type Summary struct {
	GroupCount     int            `json:"group_count"`
	DuplicateCount int            `json:"duplicate_count"` // sum over groups of size-1
	ByReason       map[Reason]int `json:"by_reason"`
}

// Result is the full outcome of Detect.
type Result struct {
	Groups  []Group `json:"groups"`
	Summary Summary `json:"summary"`
}

// Detect runs the three detection tiers in strict sequence. Each tier only
// considers records not already claimed by an earlier tier, so a record
// belongs to at most one group. The input slice is not modified.
func Detect(records []model.Candidate, opts Options) (*Result, error) {
	if err := validate(records); err != nil {
		return nil, err
	}
	threshold := opts.SimilarityThreshold
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}

	claimed := make(map[string]bool, len(records))
	var groups []Group

	// Tier 1: exact content fingerprint.
	groups = append(groups, exactTier(records, claimed, ReasonContentHash,
		func(c model.Candidate) string { return c.ContentHash })...)

	// Tier 2: business key, optional.
	if opts.EnableBusinessKeyTier {
		groups = append(groups, exactTier(records, claimed, ReasonBusinessKey,
			func(c model.Candidate) string { return c.BusinessKey })...)
	}

	// Tier 3: approximate title similarity.
	groups = append(groups, similarityTier(records, claimed, threshold)...)

	summary := Summary{ByReason: make(map[Reason]int)}
	for _, g := range groups {
		summary.GroupCount++
		summary.DuplicateCount += len(g.Records) - 1
		summary.ByReason[g.Reason]++
	}

	return &Result{Groups: groups, Summary: summary}, nil
}

// validate rejects batches with missing or duplicate identifiers. Records
// with all-null signal fields are fine; they simply never join a group.
func validate(records []model.Candidate) error {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.ID == "" {
			return eris.Errorf("dedupe: record at index %d has no identifier", i)
		}
		if seen[r.ID] {
			return eris.Errorf("dedupe: duplicate identifier %s in batch", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// exactTier groups unclaimed records by an exact key, emitting groups of
// size >= 2 with similarity 1.0. Empty keys never group. Group order follows
// the input order of each key's first occurrence.
func exactTier(records []model.Candidate, claimed map[string]bool, reason Reason, key func(model.Candidate) string) []Group {
	byKey := make(map[string][]model.Candidate)
	var keyOrder []string

	for _, r := range records {
		if claimed[r.ID] {
			continue
		}
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := byKey[k]; !ok {
			keyOrder = append(keyOrder, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	var groups []Group
	for _, k := range keyOrder {
		members := byKey[k]
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			claimed[m.ID] = true
		}
		groups = append(groups, Group{
			Reason:     reason,
			Similarity: 1.0,
			Records:    members,
			KeepID:     selectKeep(members),
		})
	}
	return groups
}

// simPair is one above-threshold pairwise comparison, indexed into the
// tier 3 comparison slice.
type simPair struct {
	i, j int
	sim  float64
}

// similarityTier compares every unclaimed, non-empty-title pair with the
// normalized edit-distance metric and clusters transitively via union-find.
// The pairwise loop runs on a worker pool; results are sorted before any
// union so the outcome is independent of scheduling.
func similarityTier(records []model.Candidate, claimed map[string]bool, threshold float64) []Group {
	var pool []model.Candidate
	var titles []string
	for _, r := range records {
		if claimed[r.ID] {
			continue
		}
		t := NormalizeTitle(r.Title)
		if t == "" {
			continue
		}
		pool = append(pool, r)
		titles = append(titles, t)
	}
	if len(pool) < 2 {
		return nil
	}

	pairs := comparePairs(titles, threshold)

	uf := newUnionFind()
	for i := range pool {
		uf.add(pool[i].ID)
	}
	for _, p := range pairs {
		uf.union(pool[p.i].ID, pool[p.j].ID)
	}

	// Minimum observed pairwise similarity per component: a conservative
	// bound, not an average.
	minSim := make(map[string]float64)
	for _, p := range pairs {
		root := uf.find(pool[p.i].ID)
		if cur, ok := minSim[root]; !ok || p.sim < cur {
			minSim[root] = p.sim
		}
	}

	byRoot := make(map[string][]model.Candidate)
	var rootOrder []string
	for _, r := range pool {
		root := uf.find(r.ID)
		if _, ok := byRoot[root]; !ok {
			rootOrder = append(rootOrder, root)
		}
		byRoot[root] = append(byRoot[root], r)
	}

	var groups []Group
	for _, root := range rootOrder {
		members := byRoot[root]
		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			claimed[m.ID] = true
		}
		groups = append(groups, Group{
			Reason:     ReasonTitleSimilarity,
			Similarity: minSim[root],
			Records:    members,
			KeepID:     selectKeep(members),
		})
	}
	return groups
}

// comparePairs runs the O(n^2) pairwise comparison across a worker pool,
// one contiguous band of rows per worker. Pairs are sorted by index before
// returning so callers union them in a deterministic order.
func comparePairs(titles []string, threshold float64) []simPair {
	n := len(titles)
	workers := runtime.NumCPU()
	if workers > n-1 {
		workers = n - 1
	}
	if workers < 1 {
		workers = 1
	}

	results := make([][]simPair, workers)
	var g errgroup.Group
	chunk := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		out := &results[w]
		g.Go(func() error {
			var local []simPair
			for i := start; i < end; i++ {
				for j := i + 1; j < n; j++ {
					if lengthRatio(titles[i], titles[j]) < threshold {
						continue
					}
					if sim := Similarity(titles[i], titles[j]); sim >= threshold {
						local = append(local, simPair{i: i, j: j, sim: sim})
					}
				}
			}
			*out = local
			return nil
		})
	}
	_ = g.Wait() // workers never error

	var pairs []simPair
	for _, r := range results {
		pairs = append(pairs, r...)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})
	return pairs
}

// selectKeep picks the record to retain from a group: highest completeness,
// then most dependent matches, then latest update. Ties resolve by input
// order via the stable sort.
func selectKeep(members []model.Candidate) string {
	sorted := make([]model.Candidate, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Completeness.Percent != sorted[b].Completeness.Percent {
			return sorted[a].Completeness.Percent > sorted[b].Completeness.Percent
		}
		if sorted[a].MatchCount != sorted[b].MatchCount {
			return sorted[a].MatchCount > sorted[b].MatchCount
		}
		return sorted[a].UpdatedAt.After(sorted[b].UpdatedAt)
	})
	return sorted[0].ID
}
