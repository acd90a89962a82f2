package planner

import (
	"fmt"

	"github.com/chilagrow/documentdb/internal/catalog"
)

// Relation is one scan target: a collection, or one shard of it. The
// index list is a snapshot read once from the catalog at the start of
// the compile and treated as immutable for its duration.
type Relation struct {
	Collection *catalog.Collection
	Indexes    []*catalog.Index
	Input      RewriteInput
}

// RewriteInput carries the caller-supplied inputs of one rewrite pass.
// All fields are immutable for the duration of a statement compile.
type RewriteInput struct {
	// RuntimeTextScan forces a runtime recheck for every text predicate
	// regardless of probe outcome.
	RuntimeTextScan bool
	// ShardLocal marks a compile that targets a single shard, where a
	// primary-key lookup can be trusted as globally unique.
	ShardLocal bool
	// CollectionID identifies the relation being compiled.
	CollectionID uint64
}

// ParentType describes the plan node that will consume the rewritten
// paths, which decides how multi-path results are packaged.
type ParentType int

const (
	// ParentInvalid means the surrounding plan shape is unknown; the
	// multi-path form of the $in rewrite is suppressed.
	ParentInvalid ParentType = iota
	// ParentNone means a plain scan node consumes the result, so a
	// multi-path combination must be wrapped in a bitmap heap path.
	ParentNone
	// ParentBitmapHeap means a bitmap consumer already exists above;
	// a multi-path combination is left unwrapped.
	ParentBitmapHeap
)

func (p ParentType) String() string {
	switch p {
	case ParentInvalid:
		return "INVALID"
	case ParentNone:
		return "NONE"
	case ParentBitmapHeap:
		return "BITMAP_HEAP"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// RewriteContext accumulates the rewrite decisions for one relation
// within one statement compile. It is allocated fresh per relation per
// statement, mutated by the path rewriter, read by the restriction
// rewriter, and discarded when compilation ends. It is never locked,
// persisted, or shared across statements.
type RewriteContext struct {
	relationID uint64
	input      RewriteInput

	primaryKeyPathFound bool
	hasTextPredicate    bool
	hasVectorPredicate  bool
	pathRewriteDone     bool

	probed      map[Predicate]ProbeResult
	descriptors *DescriptorCache

	probes   int // full probe evaluations
	memoHits int // probes answered from the memo
}

// NewRewriteContext allocates a context bound to rel for one statement
// compile.
func NewRewriteContext(rel *Relation) *RewriteContext {
	return &RewriteContext{
		relationID:  rel.Collection.ID,
		input:       rel.Input,
		probed:      make(map[Predicate]ProbeResult),
		descriptors: NewDescriptorCache(),
	}
}

// RelationID returns the collection the context is bound to.
func (ctx *RewriteContext) RelationID() uint64 { return ctx.relationID }

// Input returns the caller-supplied inputs of this compile.
func (ctx *RewriteContext) Input() RewriteInput { return ctx.input }

// PrimaryKeyPathFound reports whether an exact primary-key access path
// was already produced for this relation.
func (ctx *RewriteContext) PrimaryKeyPathFound() bool { return ctx.primaryKeyPathFound }

// HasTextPredicate reports whether a text index scan was synthesized.
func (ctx *RewriteContext) HasTextPredicate() bool { return ctx.hasTextPredicate }

// HasVectorPredicate reports whether a vector index scan was synthesized.
func (ctx *RewriteContext) HasVectorPredicate() bool { return ctx.hasVectorPredicate }

// Descriptors returns the per-statement search descriptor cache.
func (ctx *RewriteContext) Descriptors() *DescriptorCache { return ctx.descriptors }

// Probes reports how many full probe evaluations have run.
func (ctx *RewriteContext) Probes() int { return ctx.probes }

// MemoHits reports how many probes were answered from the memo.
func (ctx *RewriteContext) MemoHits() int { return ctx.memoHits }

// Probed returns the memoized probe result for pred, if present.
func (ctx *RewriteContext) Probed(pred Predicate) (ProbeResult, bool) {
	res, ok := ctx.probed[pred]
	return res, ok
}
