package planner

import (
	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/config"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/feature"
	"github.com/chilagrow/documentdb/internal/log"
)

// Statement is one query against one collection, already reduced by the
// filter compiler to an ordered predicate list.
type Statement struct {
	Database   string
	Collection string
	Predicates []Predicate

	// ShardLocal marks a compile targeting a single shard.
	ShardLocal bool
	// RuntimeTextScan forces text predicates to a runtime recheck.
	RuntimeTextScan bool
}

// CompiledPlan is the driver's output for one relation: the chosen plan
// root, the engine's raw path set, and the annotated base filters the
// executor applies to candidate documents.
type CompiledPlan struct {
	Relation     *Relation
	Root         AccessPath
	Paths        []AccessPath
	Combinator   Combinator
	Restrictions []Restriction

	ctx *RewriteContext
}

// Compiler drives the rewrite engine for whole statements: it snapshots
// the catalog metadata, allocates a fresh rewrite context per relation,
// runs both rewriters, and picks the plan root. Compilations are
// independent; a Compiler is safe for concurrent use as long as its
// catalog is.
type Compiler struct {
	catalog      catalog.Catalog
	cfg          config.PlannerConfig
	logger       log.Logger
	paths        *PathRewriter
	restrictions *RestrictionRewriter
}

// NewCompiler creates a statement compiler over the given catalog.
func NewCompiler(cat catalog.Catalog, cfg config.PlannerConfig, logger log.Logger) *Compiler {
	return &Compiler{
		catalog:      cat,
		cfg:          cfg,
		logger:       logger.With(log.String("component", "planner")),
		paths:        NewPathRewriter(cfg, logger),
		restrictions: NewRestrictionRewriter(),
	}
}

// Compile rewrites one statement's predicates into a physical plan.
// Index metadata is read from the catalog exactly once; a failed read is
// a fatal compile error, since index applicability cannot be decided
// blindly. A relation where nothing is served compiles to a sequential
// scan with every predicate evaluated at runtime — that is a valid plan,
// not an error.
func (c *Compiler) Compile(stmt *Statement) (*CompiledPlan, error) {
	coll, err := c.catalog.GetCollection(stmt.Database, stmt.Collection)
	if err != nil {
		c.logger.Error("collection lookup failed",
			log.String("collection", stmt.Collection), log.Err(err))
		return nil, err
	}

	indexes, err := c.catalog.Indexes(stmt.Database, stmt.Collection)
	if err != nil {
		c.logger.Error("index metadata read failed",
			log.String("collection", coll.Namespace()), log.Err(err))
		return nil, errors.CatalogUnavailableError(coll.Namespace(), err)
	}

	rel := &Relation{
		Collection: coll,
		Indexes:    indexes,
		Input: RewriteInput{
			RuntimeTextScan: stmt.RuntimeTextScan || c.cfg.ForceRuntimeTextScan,
			ShardLocal:      stmt.ShardLocal,
			CollectionID:    coll.ID,
		},
	}
	ctx := NewRewriteContext(rel)

	paths, comb, err := c.paths.RewritePaths(rel, stmt.Predicates, ParentNone, ctx)
	if err != nil {
		return nil, err
	}

	root := choosePath(paths, comb, coll)

	plan := &CompiledPlan{
		Relation:     rel,
		Root:         root,
		Paths:        paths,
		Combinator:   comb,
		Restrictions: baseRestrictions(stmt.Predicates, root, ctx),
		ctx:          ctx,
	}

	if feature.IsEnabled(feature.RewriteTracing) {
		c.logger.Debug("compiled statement",
			log.String("collection", coll.Namespace()),
			log.String("root", root.String()),
			log.Int("probes", ctx.Probes()),
		)
	}
	return plan, nil
}

// choosePath is the cost stage's stand-in: a fixed preference order
// instead of cost arithmetic. Any index-backed form is preferred over
// the sequential fallback; the primary-key fast path arrives alone by
// construction, so no ordering among index paths is needed.
func choosePath(paths []AccessPath, comb Combinator, coll *catalog.Collection) AccessPath {
	if root := CombinePaths(paths, comb); root != nil {
		return root
	}
	return &SeqScanPath{CollectionName: coll.Name}
}

// baseRestrictions annotates the statement's own predicates against the
// chosen plan root. A predicate is trusted only when every document the
// root produces is guaranteed to satisfy it; a union of scans for
// distinct predicates guarantees none of them individually, so all fall
// back to runtime evaluation and conjunctive semantics are preserved.
func baseRestrictions(preds []Predicate, root AccessPath, ctx *RewriteContext) []Restriction {
	guarantees := pathGuarantees(root)
	out := make([]Restriction, len(preds))
	for i, pred := range preds {
		out[i] = Restriction{Pred: pred, Mode: rootMode(pred, guarantees, ctx.input)}
	}
	return out
}

func rootMode(pred Predicate, guarantees map[Predicate]bool, input RewriteInput) FilterMode {
	exact, ok := guarantees[pred]
	switch {
	case !ok:
		return FilterRuntime
	case input.RuntimeTextScan && pred.Kind() == KindTextSearch:
		return FilterRecheck
	case exact:
		return FilterTrusted
	default:
		return FilterRecheck
	}
}
