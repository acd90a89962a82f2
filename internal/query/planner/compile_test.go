package planner

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/log"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// seedCatalog builds the products collection with the same index set the
// unit tests construct by hand, but through the real catalog so compile
// tests cover the metadata read.
func seedCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	cat := catalog.NewMemoryCatalog()

	if _, err := cat.CreateCollection(&catalog.CollectionSpec{
		Database: "docs",
		Name:     "products",
	}); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	specs := []*catalog.IndexSpec{
		{
			Database: "docs", Collection: "products", Name: "sku_1",
			Kind: catalog.OrderedIndex, IsUnique: true,
			KeyPaths: []catalog.IndexPathDef{{Path: "sku", SortOrder: catalog.Ascending}},
		},
		{
			Database: "docs", Collection: "products", Name: "category_1",
			Kind:     catalog.OrderedIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "category", SortOrder: catalog.Ascending}},
		},
		{
			Database: "docs", Collection: "products", Name: "description_text",
			Kind:     catalog.TextIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "description", SortOrder: catalog.Ascending}},
			Text:     catalog.TextOptions{DefaultLanguage: "english"},
		},
		{
			Database: "docs", Collection: "products", Name: "embedding_ann",
			Kind:     catalog.VectorIndex,
			KeyPaths: []catalog.IndexPathDef{{Path: "embedding", SortOrder: catalog.Ascending}},
			Vector:   catalog.VectorOptions{Dimensions: 3, Metric: "cosine"},
		},
	}
	for _, spec := range specs {
		if _, err := cat.CreateIndex(spec); err != nil {
			t.Fatalf("CreateIndex(%s) failed: %v", spec.Name, err)
		}
	}
	return cat
}

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	return NewCompiler(seedCatalog(t), testPlannerConfig(), log.Default())
}

func restrictionStrings(rs []Restriction) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

func TestCompileEqualityWithResidual(t *testing.T) {
	compiler := newTestCompiler(t)

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{
			&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
			&Opaque{Expr: "price > 10"},
		},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if got, want := plan.Root.String(), `IndexScan[sku_1] (sku = "A-7")`; got != want {
		t.Errorf("Expected root %q, got %q", want, got)
	}
	expected := []string{
		`[trusted] sku = "A-7"`,
		`[runtime] $expr(price > 10)`,
	}
	got := restrictionStrings(plan.Restrictions)
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Restriction %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestCompilePrimaryKeyLookup(t *testing.T) {
	compiler := newTestCompiler(t)

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{
			&PrimaryKeyLookup{FieldPath: "_id", Value: types.NewValue(int64(42))},
			&Equality{FieldPath: "category", Value: types.NewValue("espresso")},
		},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if got, want := plan.Root.String(), "IndexScan[_id_] (_id = 42)"; got != want {
		t.Errorf("Expected root %q, got %q", want, got)
	}
	if plan.Combinator != CombineNone {
		t.Errorf("Expected combinator NONE, got %v", plan.Combinator)
	}
	// The key path answers the key predicate; the equality survives as a
	// plain runtime filter over the single candidate document.
	for i, r := range plan.Restrictions {
		if r.Pred.Kind() == KindPrimaryKey {
			if r.Mode != FilterTrusted {
				t.Errorf("Restriction %d: expected the key lookup trusted, got %v", i, r.Mode)
			}
		} else if r.Mode != FilterRuntime {
			t.Errorf("Restriction %d: expected runtime, got %v", i, r.Mode)
		}
	}
}

func TestCompileInListFanout(t *testing.T) {
	compiler := newTestCompiler(t)
	pred := categoryIn("espresso", "filter", "pour-over", "cold-brew")

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{pred},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	heap, ok := plan.Root.(*BitmapHeapPath)
	if !ok {
		t.Fatalf("Expected *BitmapHeapPath root, got %T", plan.Root)
	}
	or, ok := heap.Source.(*BitmapOrPath)
	if !ok {
		t.Fatalf("Expected *BitmapOrPath source, got %T", heap.Source)
	}
	if len(or.Branches) != 4 {
		t.Fatalf("Expected 4 branches, got %d", len(or.Branches))
	}

	// Every branch answers the same in-list predicate exactly, so the
	// union can be trusted without rechecking.
	if got, want := plan.Restrictions[0].Mode, FilterTrusted; got != want {
		t.Errorf("Expected %v for the fanned-out in-list, got %v", want, got)
	}
}

func TestCompileUnionOfDistinctPredicates(t *testing.T) {
	compiler := newTestCompiler(t)

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{
			&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
			&Equality{FieldPath: "category", Value: types.NewValue("espresso")},
		},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if _, ok := plan.Root.(*BitmapHeapPath); !ok {
		t.Fatalf("Expected *BitmapHeapPath root, got %T", plan.Root)
	}
	// The union satisfies either predicate, not both; trusting it would
	// widen the conjunction. Both predicates stay runtime filters.
	for i, r := range plan.Restrictions {
		if r.Mode != FilterRuntime {
			t.Errorf("Restriction %d: expected runtime, got %v", i, r.Mode)
		}
	}
}

func TestCompileSeqScanFallback(t *testing.T) {
	compiler := newTestCompiler(t)

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{
			&Equality{FieldPath: "color", Value: types.NewValue("red")},
		},
	})
	if err != nil {
		t.Fatalf("A plan with nothing served must still compile, got: %v", err)
	}

	if got, want := plan.Root.String(), "SeqScan[products]"; got != want {
		t.Errorf("Expected root %q, got %q", want, got)
	}
	if plan.Combinator != CombineNone {
		t.Errorf("Expected combinator NONE, got %v", plan.Combinator)
	}
	if got := plan.Restrictions[0].Mode; got != FilterRuntime {
		t.Errorf("Expected runtime restriction, got %v", got)
	}
}

func TestCompileVectorSearch(t *testing.T) {
	t.Run("Approximate search uses the index and rechecks", func(t *testing.T) {
		compiler := newTestCompiler(t)
		plan, err := compiler.Compile(&Statement{
			Database:   "docs",
			Collection: "products",
			Predicates: []Predicate{&VectorSearch{
				FieldPath: "embedding",
				Spec:      `{"queryVector": [0.1, 0.2, 0.3], "limit": 10}`,
			}},
		})
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		want := `IndexScan[embedding_ann] (embedding @ vector(3 dims, cosine, k=10))`
		if got := plan.Root.String(); got != want {
			t.Errorf("Expected root %q, got %q", want, got)
		}
		if got := plan.Restrictions[0].Mode; got != FilterRecheck {
			t.Errorf("Expected recheck, got %v", got)
		}
	})

	t.Run("Exact search compiles to a full scan", func(t *testing.T) {
		compiler := newTestCompiler(t)
		plan, err := compiler.Compile(&Statement{
			Database:   "docs",
			Collection: "products",
			Predicates: []Predicate{&VectorSearch{
				FieldPath: "embedding",
				Spec:      `{"queryVector": [0.1, 0.2, 0.3], "limit": 10}`,
				Exact:     true,
			}},
		})
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if got, want := plan.Root.String(), "SeqScan[products]"; got != want {
			t.Errorf("Expected root %q, got %q", want, got)
		}
		if got := plan.Restrictions[0].Mode; got != FilterRuntime {
			t.Errorf("Expected runtime, got %v", got)
		}
	})
}

func TestCompileForcedRuntimeTextScan(t *testing.T) {
	cfg := testPlannerConfig()
	cfg.ForceRuntimeTextScan = true
	compiler := NewCompiler(seedCatalog(t), cfg, log.Default())

	plan, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{&TextSearch{Spec: `{"$search": "coffee"}`}},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !plan.Relation.Input.RuntimeTextScan {
		t.Error("Expected the forced runtime text scan to reach the rewrite input")
	}
	if got := plan.Restrictions[0].Mode; got != FilterRecheck {
		t.Errorf("Expected recheck, got %v", got)
	}
}

func TestCompileShardedKeyLookup(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	if _, err := cat.CreateCollection(&catalog.CollectionSpec{
		Database:     "docs",
		Name:         "orders",
		ShardKeyPath: "region",
	}); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	compiler := NewCompiler(cat, testPlannerConfig(), log.Default())

	stmt := &Statement{
		Database:   "docs",
		Collection: "orders",
		Predicates: []Predicate{
			&PrimaryKeyLookup{FieldPath: "_id", Value: types.NewValue(int64(9))},
		},
	}

	plan, err := compiler.Compile(stmt)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got, want := plan.Root.String(), "SeqScan[orders]"; got != want {
		t.Errorf("Cross-shard compile: expected root %q, got %q", want, got)
	}

	local := *stmt
	local.ShardLocal = true
	plan, err = compiler.Compile(&local)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got, want := plan.Root.String(), "IndexScan[_id_] (_id = 9)"; got != want {
		t.Errorf("Shard-local compile: expected root %q, got %q", want, got)
	}
}

func TestCompileCollectionNotFound(t *testing.T) {
	compiler := newTestCompiler(t)

	_, err := compiler.Compile(&Statement{Database: "docs", Collection: "missing"})
	if err == nil {
		t.Fatal("Expected an error for an unknown collection")
	}
	if !errors.IsError(err, errors.UndefinedTable) {
		t.Errorf("Expected an undefined table error, got %v", err)
	}
}

// failingCatalog serves collection metadata but cannot read indexes.
type failingCatalog struct {
	catalog.Catalog
}

func (f *failingCatalog) Indexes(database, collection string) ([]*catalog.Index, error) {
	return nil, fmt.Errorf("metadata page torn")
}

func TestCompileCatalogUnavailable(t *testing.T) {
	compiler := NewCompiler(&failingCatalog{Catalog: seedCatalog(t)}, testPlannerConfig(), log.Default())

	_, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{
			&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
		},
	})
	if err == nil {
		t.Fatal("Expected a failed metadata read to abort the compile")
	}
	if !errors.IsError(err, errors.IOError) {
		t.Errorf("Expected an I/O error, got %v", err)
	}
}

func TestCompileConcurrent(t *testing.T) {
	compiler := newTestCompiler(t)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			plan, err := compiler.Compile(&Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
					&TextSearch{Spec: `{"$search": "coffee"}`},
				},
			})
			if err != nil {
				return err
			}
			if got := len(plan.Paths); got != 2 {
				return fmt.Errorf("expected 2 paths, got %d", got)
			}
			if plan.ctx.Probes() != 2 {
				return fmt.Errorf("expected 2 probes per compile, got %d", plan.ctx.Probes())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Concurrent compile failed: %v", err)
	}
}
