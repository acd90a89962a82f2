package planner

import (
	"github.com/chilagrow/documentdb/internal/errors"
)

// RestrictionRewriter annotates free-standing predicate lists that are
// not attached to one relation's path set: join filters and
// recursive-traversal filters. It consumes the context the path rewriter
// produced for the same relation and never probes, so both call sites
// act on identical decisions.
type RestrictionRewriter struct{}

// NewRestrictionRewriter creates a restriction rewriter.
func NewRestrictionRewriter() *RestrictionRewriter {
	return &RestrictionRewriter{}
}

// AnnotateRestrictions returns preds unchanged in logical meaning, each
// annotated with how the executor must handle it. It never creates or
// mutates access paths.
//
// When the relation already carries an exact primary-key path, the list
// passes through untouched: the unique lookup is maximally selective,
// and annotating against index decisions that were deliberately skipped
// would contradict the path-level outcome.
func (r *RestrictionRewriter) AnnotateRestrictions(rel *Relation, preds []Predicate, ctx *RewriteContext) ([]Restriction, error) {
	if ctx.relationID != rel.Collection.ID {
		return nil, errors.ContextReuseError(ctx.relationID, rel.Collection.ID)
	}
	if !ctx.pathRewriteDone {
		return nil, errors.RestrictionWithoutProbeError(rel.Collection.ID)
	}

	out := make([]Restriction, len(preds))

	if ctx.primaryKeyPathFound {
		for i, pred := range preds {
			out[i] = Restriction{Pred: pred, Mode: FilterRuntime}
		}
		return out, nil
	}

	for i, pred := range preds {
		out[i] = Restriction{Pred: pred, Mode: restrictionMode(pred, ctx)}
	}
	return out, nil
}

// restrictionMode maps a memoized probe result to a filter mode. A
// predicate missing from the memo was never a pushdown candidate in
// this compile (join filters may carry predicates path generation never
// saw) and passes through unannotated.
func restrictionMode(pred Predicate, ctx *RewriteContext) FilterMode {
	if ctx.input.RuntimeTextScan && pred.Kind() == KindTextSearch {
		return FilterRecheck
	}

	res, ok := ctx.probed[pred]
	if !ok {
		return FilterRuntime
	}

	switch res.Outcome {
	case ServedApprox:
		return FilterRecheck
	case ServedExact:
		return FilterTrusted
	default:
		return FilterRuntime
	}
}
