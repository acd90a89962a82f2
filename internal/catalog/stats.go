package catalog

import (
	"time"
)

// CollectionStats holds collection-level statistics.
type CollectionStats struct {
	DocumentCount int64
	AvgDocSize    int
	LastAnalyzed  time.Time
}

// PathStats holds per-path statistics for an indexed path.
type PathStats struct {
	DistinctCount int64
	MissingCount  int64
	LastAnalyzed  time.Time
}

// Selectivity estimates the fraction of documents that match a predicate.
type Selectivity float64

// EstimateEqualitySelectivity estimates how many documents an equality
// predicate selects.
func EstimateEqualitySelectivity(stats *PathStats) Selectivity {
	if stats == nil || stats.DistinctCount <= 0 {
		// Default selectivity when no statistics available
		return 0.1
	}
	return Selectivity(1.0 / float64(stats.DistinctCount))
}

// EstimateInListSelectivity estimates selectivity of an $in list with
// n values, assuming values are distinct.
func EstimateInListSelectivity(stats *PathStats, n int) Selectivity {
	if n <= 0 {
		return 0
	}
	sel := EstimateEqualitySelectivity(stats) * Selectivity(n)
	if sel > 1.0 {
		return 1.0
	}
	return sel
}

// CombineOrSelectivity combines selectivities of OR'd predicates using
// inclusion-exclusion.
func CombineOrSelectivity(selectivities ...Selectivity) Selectivity {
	if len(selectivities) == 0 {
		return 0
	}

	result := selectivities[0]
	for i := 1; i < len(selectivities); i++ {
		result = result + selectivities[i] - (result * selectivities[i])
	}

	return result
}
