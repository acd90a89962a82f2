package planner

import (
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// LookupJoin is a $lookup-style join: for each outer document, the inner
// relation is matched on ForeignPath = outer value at LocalPath, with
// Filters applied to every inner candidate.
type LookupJoin struct {
	Inner       *CompiledPlan
	LocalPath   types.Path
	ForeignPath types.Path
	Filters     []Restriction
}

// GraphTraversal is a $graphLookup-style recursive traversal: starting
// from documents whose ConnectTo value matches a seed, it repeatedly
// follows ConnectFrom values up to MaxDepth steps, re-applying
// StepFilters at every step.
type GraphTraversal struct {
	Inner       *CompiledPlan
	ConnectFrom types.Path
	ConnectTo   types.Path
	MaxDepth    int
	StepFilters []Restriction
}

// CompileLookup annotates the join filter list of a $lookup against an
// already compiled inner relation. The annotation reuses the rewrite
// context produced when the inner relation's paths were generated; this
// call site never re-probes, so the join sees exactly the decisions path
// generation made. It may run once per join clause in the statement.
func (c *Compiler) CompileLookup(inner *CompiledPlan, localPath, foreignPath types.Path, filters []Predicate) (*LookupJoin, error) {
	annotated, err := c.restrictions.AnnotateRestrictions(inner.Relation, filters, inner.ctx)
	if err != nil {
		return nil, err
	}
	return &LookupJoin{
		Inner:       inner,
		LocalPath:   localPath,
		ForeignPath: foreignPath,
		Filters:     annotated,
	}, nil
}

// CompileTraversal annotates the per-step filter list of a $graphLookup
// over an already compiled relation. Every recursion step re-applies the
// same annotated filters; the annotation itself happens once, against
// the relation's existing rewrite context.
func (c *Compiler) CompileTraversal(inner *CompiledPlan, connectFrom, connectTo types.Path, maxDepth int, filters []Predicate) (*GraphTraversal, error) {
	if maxDepth < 0 {
		return nil, errors.InvalidOperandError("$graphLookup", "maxDepth must be non-negative")
	}
	annotated, err := c.restrictions.AnnotateRestrictions(inner.Relation, filters, inner.ctx)
	if err != nil {
		return nil, err
	}
	return &GraphTraversal{
		Inner:       inner,
		ConnectFrom: connectFrom,
		ConnectTo:   connectTo,
		MaxDepth:    maxDepth,
		StepFilters: annotated,
	}, nil
}
