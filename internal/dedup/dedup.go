// Package dedup resolves pools of activity records that may describe the same
// real-world session into one canonical record per session.
package dedup

import (
	"sort"
	"time"

	"trainload/internal/sport"
	"trainload/internal/store"
)

// Tolerances bounds how far apart two records may be and still count as the
// same session. One policy applies everywhere; call sites must not carry
// their own windows.
type Tolerances struct {
	TimeWindow time.Duration // max start-time difference
	Duration   time.Duration // max duration difference
	Distance   float64       // max distance difference, meters
}

// DefaultTolerances returns the stock tolerance policy: wide enough for clock
// skew between recording devices, narrow enough to keep a morning and an
// evening session apart.
func DefaultTolerances() Tolerances {
	return Tolerances{
		TimeWindow: 30 * time.Minute,
		Duration:   2 * time.Minute,
		Distance:   500,
	}
}

// Stream-presence weights for the completeness score. Power and GPS weigh
// heaviest; a record carrying them is the most useful one to keep.
const (
	weightPower     = 30
	weightGPS       = 30
	weightHeartrate = 20
	weightCadence   = 10
	weightAltitude  = 10
)

// CompletenessScore rates how much sensor data a record carries.
func CompletenessScore(a *store.Activity) int {
	score := 0
	if a.HasPower {
		score += weightPower
	}
	if a.HasGPS {
		score += weightGPS
	}
	if a.HasHeartrate {
		score += weightHeartrate
	}
	if a.HasCadence {
		score += weightCadence
	}
	if a.HasAltitude {
		score += weightAltitude
	}
	return score
}

// IsDuplicate reports whether two records plausibly describe the same
// session: same canonical sport, start times within the time window, durations
// within tolerance, and, when both records carry a distance, distances within
// tolerance. A record with no sport label is never merged with anything.
func IsDuplicate(a, b *store.Activity, tol Tolerances) bool {
	if a.Sport == "" || b.Sport == "" {
		return false
	}
	if sport.Normalize(a.Sport) != sport.Normalize(b.Sport) {
		return false
	}
	if absDuration(a.StartDate.Sub(b.StartDate)) > tol.TimeWindow {
		return false
	}
	da := time.Duration(a.DurationSeconds) * time.Second
	db := time.Duration(b.DurationSeconds) * time.Second
	if absDuration(da-db) > tol.Duration {
		return false
	}
	if a.Distance != nil && b.Distance != nil {
		if absFloat(*a.Distance-*b.Distance) > tol.Distance {
			return false
		}
	}
	return true
}

// Resolution is the outcome of resolving one duplicate cluster.
type Resolution struct {
	Canonical store.Activity
	Removed   []store.Activity
	// Ambiguous is set when more than one record tied on both completeness
	// score and provenance class and only creation time decided the winner.
	Ambiguous bool
}

// Resolve clusters the given records by pairwise similarity and selects a
// canonical record per cluster. Similarity is not transitive, so clusters are
// the connected components of the pairwise-duplicate graph: if A~B and B~C,
// all three belong to one cluster even when A and C fail the pairwise test.
// Empty input yields no resolutions; singleton clusters are omitted.
func Resolve(records []store.Activity, tol Tolerances) []Resolution {
	var resolutions []Resolution
	for _, cluster := range Clusters(records, tol) {
		if len(cluster) < 2 {
			continue
		}
		resolutions = append(resolutions, resolveCluster(cluster))
	}
	return resolutions
}

// Clusters partitions records into the connected components of the
// pairwise-duplicate graph, preserving input order within each component.
func Clusters(records []store.Activity, tol Tolerances) [][]store.Activity {
	n := len(records)
	if n == 0 {
		return nil
	}

	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if IsDuplicate(&records[i], &records[j], tol) {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	visited := make([]bool, n)
	var clusters [][]store.Activity
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		// BFS over the component
		var component []int
		queue := []int{i}
		visited[i] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, cur)
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		sort.Ints(component)
		cluster := make([]store.Activity, 0, len(component))
		for _, idx := range component {
			cluster = append(cluster, records[idx])
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// resolveCluster picks the canonical record of a cluster:
// highest completeness score, then external provenance over manual, then most
// recently created. The canonical record inherits an audit list of the
// sources the removed duplicates came from.
func resolveCluster(cluster []store.Activity) Resolution {
	ranked := make([]store.Activity, len(cluster))
	copy(ranked, cluster)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := CompletenessScore(&ranked[i]), CompletenessScore(&ranked[j])
		if si != sj {
			return si > sj
		}
		ei, ej := isExternal(&ranked[i]), isExternal(&ranked[j])
		if ei != ej {
			return ei
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	canonical := ranked[0]
	removed := ranked[1:]

	ambiguous := CompletenessScore(&removed[0]) == CompletenessScore(&canonical) &&
		isExternal(&removed[0]) == isExternal(&canonical)

	for _, r := range removed {
		canonical.DuplicateSources = append(canonical.DuplicateSources, r.Source)
	}

	return Resolution{
		Canonical: canonical,
		Removed:   append([]store.Activity(nil), removed...),
		Ambiguous: ambiguous,
	}
}

func isExternal(a *store.Activity) bool {
	return a.Source != "" && a.Source != store.Manual
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
