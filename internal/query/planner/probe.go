package planner

import (
	"fmt"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/feature"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// Outcome classifies whether an index can serve a predicate.
type Outcome int

const (
	// Unserved: no index answers the predicate; it is evaluated at
	// runtime against every candidate document.
	Unserved Outcome = iota
	// ServedExact: an index answers the predicate with no false
	// positives; no runtime recheck is needed.
	ServedExact
	// ServedApprox: an index produces a superset of the true matches;
	// the predicate must be rechecked against each document.
	ServedApprox
)

func (o Outcome) String() string {
	switch o {
	case Unserved:
		return "UNSERVED"
	case ServedExact:
		return "SERVED_EXACT"
	case ServedApprox:
		return "SERVED_APPROX"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// ProbeResult is the memoized answer of one capability probe.
type ProbeResult struct {
	Outcome Outcome
	Index   *catalog.Index // nil when Unserved
}

func (r ProbeResult) String() string {
	if r.Index == nil {
		return r.Outcome.String()
	}
	return fmt.Sprintf("%s via %s", r.Outcome, r.Index.Name)
}

// Probe decides whether one of the relation's indexes can serve pred and
// with what exactness. The result is memoized in ctx: a predicate is
// probed at most once per statement compile, and both rewrite call sites
// reuse the same answer. Probing reads only the relation's index
// snapshot and the descriptor cache; it performs no I/O.
func Probe(rel *Relation, pred Predicate, ctx *RewriteContext) ProbeResult {
	if res, ok := ctx.probed[pred]; ok {
		ctx.memoHits++
		return res
	}

	res := probeIndexes(rel, pred, ctx)
	ctx.probed[pred] = res
	ctx.probes++
	return res
}

func probeIndexes(rel *Relation, pred Predicate, ctx *RewriteContext) ProbeResult {
	switch p := pred.(type) {
	case *PrimaryKeyLookup:
		return probePrimaryKey(rel, p)
	case *Equality:
		return probeEquality(rel, p.FieldPath)
	case *InList:
		return probeEquality(rel, p.FieldPath)
	case *TextSearch:
		return probeText(rel, p, ctx)
	case *VectorSearch:
		return probeVector(rel, p, ctx)
	default:
		return ProbeResult{Outcome: Unserved}
	}
}

// probePrimaryKey serves a primary-key lookup only through the
// relation's unique primary ordered index, and only when the compile is
// shard-local or the collection is unsharded. A cross-shard compile
// cannot trust a single-shard key lookup as globally unique.
func probePrimaryKey(rel *Relation, pred *PrimaryKeyLookup) ProbeResult {
	if rel.Collection.IsSharded() && !rel.Input.ShardLocal {
		return ProbeResult{Outcome: Unserved}
	}
	for _, index := range rel.Indexes {
		if !index.IsPrimary || !index.IsUnique || index.Kind != catalog.OrderedIndex {
			continue
		}
		if index.LeadingPath() != pred.FieldPath {
			continue
		}
		return ProbeResult{Outcome: ServedExact, Index: index}
	}
	return ProbeResult{Outcome: Unserved}
}

// probeEquality serves equality and in-list predicates through any
// equality-capable index covering the path. The answer is always exact;
// the rewriter decides the representation.
func probeEquality(rel *Relation, path types.Path) ProbeResult {
	for _, index := range rel.Indexes {
		if index.Kind != catalog.OrderedIndex && index.Kind != catalog.HashedIndex {
			continue
		}
		if !index.CoversPath(path) {
			continue
		}
		return ProbeResult{Outcome: ServedExact, Index: index}
	}
	return ProbeResult{Outcome: Unserved}
}

// probeText serves a text predicate through a text index whose language
// matches the descriptor. Text answers are ranked and stemmed, so they
// are always approximate. A malformed specification is not a compile
// failure: the predicate falls back to a runtime filter.
func probeText(rel *Relation, pred *TextSearch, ctx *RewriteContext) ProbeResult {
	if !feature.IsEnabled(feature.TextIndexScans) {
		return ProbeResult{Outcome: Unserved}
	}
	desc, err := ctx.descriptors.For(pred)
	if err != nil {
		return ProbeResult{Outcome: Unserved}
	}
	for _, index := range rel.Indexes {
		if index.Kind != catalog.TextIndex {
			continue
		}
		if indexLanguage(index) != desc.Language {
			continue
		}
		return ProbeResult{Outcome: ServedApprox, Index: index}
	}
	return ProbeResult{Outcome: Unserved}
}

// probeVector serves an approximate kNN predicate through a vector index
// whose metric and dimensionality match the descriptor. An exact kNN
// request is never served: exact top-K is defined to run as a full
// runtime evaluation.
func probeVector(rel *Relation, pred *VectorSearch, ctx *RewriteContext) ProbeResult {
	if pred.Exact {
		return ProbeResult{Outcome: Unserved}
	}
	if !feature.IsEnabled(feature.VectorIndexScans) {
		return ProbeResult{Outcome: Unserved}
	}
	desc, err := ctx.descriptors.For(pred)
	if err != nil {
		return ProbeResult{Outcome: Unserved}
	}
	for _, index := range rel.Indexes {
		if index.Kind != catalog.VectorIndex {
			continue
		}
		if !index.CoversPath(pred.FieldPath) {
			continue
		}
		if index.Vector.Metric != desc.Metric || index.Vector.Dimensions != len(desc.Vector) {
			continue
		}
		return ProbeResult{Outcome: ServedApprox, Index: index}
	}
	return ProbeResult{Outcome: Unserved}
}

func indexLanguage(index *catalog.Index) string {
	if index.Text.DefaultLanguage == "" {
		return defaultTextLanguage
	}
	return index.Text.DefaultLanguage
}
