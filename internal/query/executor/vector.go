package executor

import (
	"math"
	"sort"

	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// TopKOperator implements exact nearest-neighbor semantics: it drains
// its child, ranks every candidate by distance to the query vector, and
// streams the k nearest. Candidates without a vector of the right
// dimensionality cannot rank and are dropped.
type TopKOperator struct {
	baseOperator
	child     Operator
	fieldPath types.Path
	desc      *planner.SearchDescriptor
	ranked    []*Candidate
	pos       int
}

// NewTopKOperator creates a top-k pass over a candidate stream.
func NewTopKOperator(child Operator, fieldPath types.Path, desc *planner.SearchDescriptor) *TopKOperator {
	return &TopKOperator{child: child, fieldPath: fieldPath, desc: desc}
}

// Open drains the child and ranks the candidates.
func (op *TopKOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	if err := op.child.Open(ctx); err != nil {
		return err
	}

	type scored struct {
		cand *Candidate
		dist float64
	}
	var hits []scored
	for {
		cand, err := op.child.Next()
		if err != nil {
			return err
		}
		if cand == nil {
			break
		}
		vec, ok := vectorAt(cand.Doc, op.fieldPath)
		if !ok || len(vec) != len(op.desc.Vector) {
			continue
		}
		hits = append(hits, scored{
			cand: cand,
			dist: distance(op.desc.Metric, op.desc.Vector, vec),
		})
	}

	// Ties keep store order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if op.desc.Limit > 0 && len(hits) > op.desc.Limit {
		hits = hits[:op.desc.Limit]
	}

	op.ranked = make([]*Candidate, len(hits))
	for i, h := range hits {
		op.ranked[i] = h.cand
	}
	op.pos = 0
	return nil
}

// Next returns the next candidate, nearest first.
func (op *TopKOperator) Next() (*Candidate, error) {
	if op.pos >= len(op.ranked) {
		return nil, nil //nolint:nilnil // EOF - standard iterator pattern
	}
	cand := op.ranked[op.pos]
	op.pos++
	return cand, nil
}

// Close closes the child.
func (op *TopKOperator) Close() error {
	op.ranked = nil
	op.pos = 0
	return op.child.Close()
}

// matchVector ranks every document carrying a vector of the right
// dimensionality and keeps the k nearest. Rank order is preserved so an
// index-backed scan streams nearest first.
func matchVector(docs []types.Document, path types.Path, desc *planner.SearchDescriptor) []uint32 {
	type ranked struct {
		id   uint32
		dist float64
	}
	var hits []ranked
	for i, doc := range docs {
		vec, ok := vectorAt(doc, path)
		if !ok || len(vec) != len(desc.Vector) {
			continue
		}
		hits = append(hits, ranked{id: uint32(i), dist: distance(desc.Metric, desc.Vector, vec)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if desc.Limit > 0 && len(hits) > desc.Limit {
		hits = hits[:desc.Limit]
	}

	ids := make([]uint32, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// vectorAt extracts a numeric vector from the document, or reports
// false when the path is missing or holds anything but numbers.
func vectorAt(doc types.Document, path types.Path) ([]float64, bool) {
	val, ok := doc.Lookup(path)
	if !ok {
		return nil, false
	}
	arr, err := val.AsArray()
	if err != nil {
		return nil, false
	}
	vec := make([]float64, len(arr))
	for i, elem := range arr {
		f, err := elem.AsFloat64()
		if err != nil {
			return nil, false
		}
		vec[i] = f
	}
	return vec, true
}

// distance computes the descriptor's metric between two equal-length
// vectors. Cosine distance is 1 - similarity and "ip" is the negated
// inner product, so nearest-first ordering is ascending for every
// metric.
func distance(metric string, a, b []float64) float64 {
	switch metric {
	case "l2":
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	case "ip":
		return -dot(a, b)
	default: // cosine
		ma, mb := math.Sqrt(dot(a, a)), math.Sqrt(dot(b, b))
		if ma == 0 || mb == 0 {
			return 1
		}
		return 1 - dot(a, b)/(ma*mb)
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
