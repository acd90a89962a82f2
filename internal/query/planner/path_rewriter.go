package planner

import (
	"github.com/samber/lo"

	"github.com/chilagrow/documentdb/internal/config"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/feature"
	"github.com/chilagrow/documentdb/internal/log"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// PathRewriter replaces runtime-evaluated predicates with index-backed
// access paths. It runs once per relation during path generation, before
// cost-based path selection, and records its decisions in the relation's
// RewriteContext so the restriction rewriter can reuse them.
type PathRewriter struct {
	cfg    config.PlannerConfig
	logger log.Logger
}

// NewPathRewriter creates a path rewriter with the given planner
// configuration.
func NewPathRewriter(cfg config.PlannerConfig, logger log.Logger) *PathRewriter {
	return &PathRewriter{
		cfg:    cfg,
		logger: logger.With(log.String("component", "path_rewriter")),
	}
}

// RewritePaths probes every predicate and synthesizes index-backed
// access paths for the served ones. Predicates probed Unserved stay in
// the relation's base filter list; a relation with no usable index
// yields (nil, CombineNone), and the caller falls back to a sequential
// scan — that is not an error. Invoking the rewriter again over the same
// context is idempotent: probe results come from the memo.
func (r *PathRewriter) RewritePaths(rel *Relation, preds []Predicate, parent ParentType, ctx *RewriteContext) ([]AccessPath, Combinator, error) {
	if ctx.relationID != rel.Collection.ID {
		return nil, CombineNone, errors.ContextReuseError(ctx.relationID, rel.Collection.ID)
	}

	results := make([]ProbeResult, len(preds))
	for i, pred := range preds {
		results[i] = Probe(rel, pred, ctx)
	}
	ctx.pathRewriteDone = true

	// A unique primary-key lookup wins outright: it identifies at most
	// one document, so combining it with secondary-index scans would
	// only add redundant work. No other predicate is rewritten.
	if pkTrusted(rel) {
		for i, res := range results {
			if res.Outcome == ServedExact && res.Index != nil && res.Index.IsPrimary {
				ctx.primaryKeyPathFound = true
				path := r.primaryKeyPath(preds[i], res)
				r.trace(rel, []AccessPath{path}, CombineNone)
				return []AccessPath{path}, CombineNone, nil
			}
		}
	}

	var paths []AccessPath
	for i, pred := range preds {
		res := results[i]
		if res.Outcome == Unserved {
			continue
		}
		switch p := pred.(type) {
		case *Equality:
			paths = append(paths, &IndexScanPath{
				Index:  res.Index,
				Pred:   p,
				Values: []types.Value{p.Value},
				exact:  true,
			})
		case *InList:
			paths = append(paths, r.inListPaths(p, res, parent)...)
		case *TextSearch:
			ctx.hasTextPredicate = true
			desc, _ := ctx.descriptors.For(p)
			paths = append(paths, &IndexScanPath{Index: res.Index, Pred: p, Desc: desc})
		case *VectorSearch:
			ctx.hasVectorPredicate = true
			desc, _ := ctx.descriptors.For(p)
			paths = append(paths, &IndexScanPath{Index: res.Index, Pred: p, Desc: desc})
		}
	}

	comb := chooseCombinator(paths, parent)
	r.trace(rel, paths, comb)
	return paths, comb, nil
}

// inListPaths decides the representation of a served $in predicate.
// Lists at or below the fan-out threshold become one multi-value scan;
// larger lists become one single-value scan per value, to be unioned via
// bitmap OR. The multi-path form is gated by the in_query_rewrite flag
// and suppressed when the surrounding plan shape is unknown.
func (r *PathRewriter) inListPaths(pred *InList, res ProbeResult, parent ParentType) []AccessPath {
	fanOut := r.cfg.EnableInRewrite &&
		feature.IsEnabled(feature.InQueryRewrite) &&
		parent != ParentInvalid

	if !fanOut || len(pred.Values) <= r.cfg.InListFanout {
		return []AccessPath{&IndexScanPath{
			Index:  res.Index,
			Pred:   pred,
			Values: pred.Values,
			exact:  true,
		}}
	}

	return lo.Map(pred.Values, func(v types.Value, _ int) AccessPath {
		return &IndexScanPath{
			Index:  res.Index,
			Pred:   pred,
			Values: []types.Value{v},
			exact:  true,
		}
	})
}

func (r *PathRewriter) primaryKeyPath(pred Predicate, res ProbeResult) AccessPath {
	path := &IndexScanPath{Index: res.Index, Pred: pred, exact: true}
	switch p := pred.(type) {
	case *PrimaryKeyLookup:
		path.Values = []types.Value{p.Value}
	case *Equality:
		path.Values = []types.Value{p.Value}
	}
	return path
}

// chooseCombinator decides how multiple paths combine at the parent
// node. More than one path means a bitmap union; whether it is wrapped
// depends on the parent plan shape.
func chooseCombinator(paths []AccessPath, parent ParentType) Combinator {
	if len(paths) <= 1 {
		return CombineNone
	}
	if parent == ParentBitmapHeap {
		return CombineBitmapOr
	}
	return CombineWrapBitmapHeap
}

// pkTrusted reports whether a unique key lookup can be trusted to
// identify one document globally. On a sharded collection that holds
// only for shard-local compiles.
func pkTrusted(rel *Relation) bool {
	return rel.Input.ShardLocal || !rel.Collection.IsSharded()
}

func (r *PathRewriter) trace(rel *Relation, paths []AccessPath, comb Combinator) {
	if !feature.IsEnabled(feature.RewriteTracing) {
		return
	}
	r.logger.Debug("rewrote relation paths",
		log.Uint64("collection_id", rel.Collection.ID),
		log.Int("paths", len(paths)),
		log.String("combinator", comb.String()),
	)
}
