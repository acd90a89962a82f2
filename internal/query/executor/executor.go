// Package executor runs compiled plans against an in-memory document
// store. It is a harness for exercising plan semantics end to end:
// scans compute the document sets real indexes would produce, bitmap
// operators combine them, and the filter stage applies the plan's
// restriction annotations. It is not a production execution engine.
package executor

import (
	"fmt"

	"github.com/chilagrow/documentdb/internal/config"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/log"
	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// Operator is the base interface for all execution operators.
type Operator interface {
	// Open initializes the operator and its children.
	Open(ctx *ExecContext) error
	// Next returns the next candidate or nil when exhausted.
	Next() (*Candidate, error)
	// Close cleans up resources.
	Close() error
}

// baseOperator carries the execution context shared by all operators.
type baseOperator struct {
	ctx *ExecContext
}

// Candidate is one document produced by a scan, tagged with its
// position in the store.
type Candidate struct {
	DocID uint32
	Doc   types.Document
}

// ExecContext carries the per-run state shared by the operator tree.
type ExecContext struct {
	Store       *Store
	Descriptors *planner.DescriptorCache
	Stats       *ExecStats
}

// NewExecContext creates a context for one plan execution.
func NewExecContext(store *Store) *ExecContext {
	return &ExecContext{
		Store:       store,
		Descriptors: planner.NewDescriptorCache(),
		Stats:       &ExecStats{},
	}
}

// ExecStats counts the work one execution performed.
type ExecStats struct {
	// DocsScanned counts documents produced by the scan stage.
	DocsScanned int
	// Rechecks counts predicate evaluations against candidates.
	// Trusted predicates contribute nothing here.
	Rechecks int
	// DocsReturned counts documents that survived all filters.
	DocsReturned int
}

// Executor runs compiled plans against a store.
type Executor struct {
	store  *Store
	cfg    config.ExecutorConfig
	logger log.Logger
}

// NewExecutor creates an executor over the given store.
func NewExecutor(store *Store, cfg config.ExecutorConfig, logger log.Logger) *Executor {
	return &Executor{
		store:  store,
		cfg:    cfg,
		logger: logger.With(log.String("component", "executor")),
	}
}

// Run executes a compiled plan and returns the matching documents in
// scan order. The returned stats expose how much work the plan's
// restriction annotations saved or caused.
func (e *Executor) Run(plan *planner.CompiledPlan) ([]types.Document, *ExecStats, error) {
	coll := plan.Relation.Collection
	docs, ok := e.store.Documents(coll.ID)
	if !ok {
		return nil, nil, errors.UndefinedCollectionError(coll.Namespace())
	}

	ctx := NewExecContext(e.store)
	root, err := buildTree(docs, plan, ctx, e.cfg.BatchSize)
	if err != nil {
		return nil, nil, err
	}

	if err := root.Open(ctx); err != nil {
		return nil, nil, err
	}

	var out []types.Document
	for {
		cand, err := root.Next()
		if err != nil {
			root.Close()
			return nil, nil, err
		}
		if cand == nil {
			break
		}
		out = append(out, cand.Doc)
	}
	if err := root.Close(); err != nil {
		return nil, nil, err
	}
	ctx.Stats.DocsReturned = len(out)

	e.logger.Debug("executed plan",
		log.String("collection", coll.Namespace()),
		log.Int("scanned", ctx.Stats.DocsScanned),
		log.Int("rechecks", ctx.Stats.Rechecks),
		log.Int("returned", ctx.Stats.DocsReturned),
	)
	return out, ctx.Stats, nil
}

// buildTree lowers a plan into an operator tree: the scan for the plan
// root, the restriction filter above it, and a trailing top-k pass
// when a vector predicate was left to runtime evaluation.
func buildTree(docs []types.Document, plan *planner.CompiledPlan, ctx *ExecContext, batchSize int) (Operator, error) {
	scan, err := buildScan(docs, plan.Root, batchSize)
	if err != nil {
		return nil, err
	}
	var root Operator = NewFilterOperator(scan, plan.Restrictions)

	vs, desc, err := runtimeVectorSearch(plan.Restrictions, ctx)
	if err != nil {
		return nil, err
	}
	if vs != nil {
		root = NewTopKOperator(root, vs.FieldPath, desc)
	}
	return root, nil
}

// runtimeVectorSearch finds a vector predicate the plan left to runtime
// evaluation. Exact searches and searches with no usable index land
// here. The descriptor must parse: a malformed specification never
// fails a compile, so it fails the run instead.
func runtimeVectorSearch(restrictions []planner.Restriction, ctx *ExecContext) (*planner.VectorSearch, *planner.SearchDescriptor, error) {
	for _, r := range restrictions {
		vs, ok := r.Pred.(*planner.VectorSearch)
		if !ok || r.Mode != planner.FilterRuntime {
			continue
		}
		desc, err := ctx.Descriptors.For(vs)
		if err != nil {
			return nil, nil, err
		}
		return vs, desc, nil
	}
	return nil, nil, nil
}

// buildScan lowers an access path into the operator that streams its
// documents.
func buildScan(docs []types.Document, path planner.AccessPath, batchSize int) (Operator, error) {
	switch p := path.(type) {
	case *planner.SeqScanPath:
		return NewSeqScanOperator(docs), nil
	case *planner.IndexScanPath:
		return NewIndexScanOperator(docs, p), nil
	case *planner.BitmapHeapPath:
		source, err := buildBitmapSource(docs, p.Source)
		if err != nil {
			return nil, err
		}
		return NewBitmapHeapScanOperator(docs, source, batchSize), nil
	case *planner.BitmapOrPath:
		// An unwrapped union at the root still needs its documents
		// fetched.
		source, err := buildBitmapSource(docs, p)
		if err != nil {
			return nil, err
		}
		return NewBitmapHeapScanOperator(docs, source, batchSize), nil
	default:
		return nil, errors.PlanStateError(fmt.Sprintf("unknown access path %T", path))
	}
}

// buildBitmapSource lowers an access path into a bitmap producer.
func buildBitmapSource(docs []types.Document, path planner.AccessPath) (BitmapOperator, error) {
	switch p := path.(type) {
	case *planner.IndexScanPath:
		return NewBitmapIndexScanOperator(docs, p), nil
	case *planner.BitmapOrPath:
		children := make([]BitmapOperator, len(p.Branches))
		for i, branch := range p.Branches {
			child, err := buildBitmapSource(docs, branch)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return NewBitmapOrOperator(children), nil
	default:
		return nil, errors.PlanStateError(fmt.Sprintf("access path %T cannot produce a bitmap", path))
	}
}
