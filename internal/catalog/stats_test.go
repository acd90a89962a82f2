package catalog

import (
	"math"
	"testing"
)

func TestEstimateEqualitySelectivity(t *testing.T) {
	tests := []struct {
		name     string
		stats    *PathStats
		expected Selectivity
	}{
		{
			name:     "No statistics",
			stats:    nil,
			expected: 0.1,
		},
		{
			name:     "Zero distinct count",
			stats:    &PathStats{DistinctCount: 0},
			expected: 0.1,
		},
		{
			name:     "Ten distinct values",
			stats:    &PathStats{DistinctCount: 10},
			expected: 0.1,
		},
		{
			name:     "Thousand distinct values",
			stats:    &PathStats{DistinctCount: 1000},
			expected: 0.001,
		},
		{
			name:     "Single distinct value",
			stats:    &PathStats{DistinctCount: 1},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateEqualitySelectivity(tt.stats)
			if math.Abs(float64(got-tt.expected)) > 1e-9 {
				t.Errorf("Expected selectivity %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEstimateInListSelectivity(t *testing.T) {
	tests := []struct {
		name     string
		stats    *PathStats
		n        int
		expected Selectivity
	}{
		{
			name:     "Empty list",
			stats:    &PathStats{DistinctCount: 100},
			n:        0,
			expected: 0,
		},
		{
			name:     "Negative count",
			stats:    &PathStats{DistinctCount: 100},
			n:        -3,
			expected: 0,
		},
		{
			name:     "Five values over hundred distinct",
			stats:    &PathStats{DistinctCount: 100},
			n:        5,
			expected: 0.05,
		},
		{
			name:     "List larger than distinct count caps at one",
			stats:    &PathStats{DistinctCount: 10},
			n:        50,
			expected: 1.0,
		},
		{
			name:     "No statistics uses default per value",
			stats:    nil,
			n:        3,
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateInListSelectivity(tt.stats, tt.n)
			if math.Abs(float64(got-tt.expected)) > 1e-9 {
				t.Errorf("Expected selectivity %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCombineOrSelectivity(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []Selectivity
		expected Selectivity
	}{
		{
			name:     "No inputs",
			inputs:   nil,
			expected: 0,
		},
		{
			name:     "Single input",
			inputs:   []Selectivity{0.25},
			expected: 0.25,
		},
		{
			name:     "Two disjoint-ish predicates",
			inputs:   []Selectivity{0.1, 0.2},
			expected: 0.28,
		},
		{
			name:     "Certain predicate dominates",
			inputs:   []Selectivity{1.0, 0.5},
			expected: 1.0,
		},
		{
			name:     "Three equal predicates",
			inputs:   []Selectivity{0.5, 0.5, 0.5},
			expected: 0.875,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineOrSelectivity(tt.inputs...)
			if math.Abs(float64(got-tt.expected)) > 1e-9 {
				t.Errorf("Expected selectivity %v, got %v", tt.expected, got)
			}
		})
	}
}
