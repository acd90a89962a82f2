package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

func TestDistanceMetrics(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		a, b   []float64
		want   float64
	}{
		{"cosine identical", "cosine", []float64{1, 0}, []float64{2, 0}, 0},
		{"cosine orthogonal", "cosine", []float64{1, 0}, []float64{0, 1}, 1},
		{"cosine zero vector", "cosine", []float64{0, 0}, []float64{1, 0}, 1},
		{"l2", "l2", []float64{0, 0}, []float64{3, 4}, 5},
		{"inner product", "ip", []float64{1, 2}, []float64{3, 4}, -11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, distance(tt.metric, tt.a, tt.b), 1e-9)
		})
	}
}

func TestVectorAt(t *testing.T) {
	doc, err := types.ParseDocument(`{"embedding": [1, 0.5, 0], "name": "x", "mixed": [1, "two"]}`)
	require.NoError(t, err)

	vec, ok := vectorAt(doc, "embedding")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0.5, 0}, vec)

	_, ok = vectorAt(doc, "missing")
	assert.False(t, ok)

	_, ok = vectorAt(doc, "name")
	assert.False(t, ok)

	_, ok = vectorAt(doc, "mixed")
	assert.False(t, ok, "non-numeric elements disqualify the vector")
}

func TestMatchVectorRanksNearestFirst(t *testing.T) {
	docs := testDocs(t,
		`{"_id": 1, "embedding": [0.0, 1.0]}`,
		`{"_id": 2, "embedding": [1.0, 0.0]}`,
		`{"_id": 3, "embedding": [0.9, 0.1]}`,
		`{"_id": 4, "embedding": [0.5]}`,
		`{"_id": 5}`,
	)
	desc := &planner.SearchDescriptor{Vector: []float64{1, 0}, Metric: "cosine", Limit: 2}

	got := matchVector(docs, "embedding", desc)
	assert.Equal(t, []uint32{1, 2}, got,
		"exact match first, then the near neighbor; short and missing vectors skipped")
}

func TestTopKOperator(t *testing.T) {
	docs := testDocs(t,
		`{"_id": 1, "embedding": [0.0, 1.0]}`,
		`{"_id": 2, "embedding": [1.0, 0.0]}`,
		`{"_id": 3, "embedding": [0.9, 0.1]}`,
	)
	desc := &planner.SearchDescriptor{Vector: []float64{1, 0}, Metric: "l2", Limit: 2}
	op := NewTopKOperator(NewSeqScanOperator(docs), "embedding", desc)

	ctx := NewExecContext(NewStore(nil))
	require.NoError(t, op.Open(ctx))
	defer op.Close()

	var got []uint32
	for {
		cand, err := op.Next()
		require.NoError(t, err)
		if cand == nil {
			break
		}
		got = append(got, cand.DocID)
	}

	assert.Equal(t, []uint32{1, 2}, got)
}
