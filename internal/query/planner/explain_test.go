package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/chilagrow/documentdb/internal/catalog"
	"github.com/chilagrow/documentdb/internal/log"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// Golden files live under testdata/golden; regenerate with -update after
// a deliberate plan format change.
func TestExplainPlan(t *testing.T) {
	tests := []struct {
		golden string
		stmt   *Statement
	}{
		{
			golden: "explain_primary_key",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&PrimaryKeyLookup{FieldPath: "_id", Value: types.NewValue(int64(42))},
					&Opaque{Expr: "price > 10"},
				},
			},
		},
		{
			golden: "explain_fanout",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					categoryIn("espresso", "filter", "pour-over", "cold-brew"),
				},
			},
		},
		{
			golden: "explain_mixed",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
					&TextSearch{Spec: `{"$search": "coffee"}`},
				},
			},
		},
		{
			golden: "explain_seqscan",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&Equality{FieldPath: "color", Value: types.NewValue("red")},
				},
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			compiler := newTestCompiler(t)
			plan, err := compiler.Compile(tt.stmt)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			g.Assert(t, tt.golden, []byte(ExplainPlan(plan)))
		})
	}
}

// An analyzed collection carries a document estimate on the plan header;
// an unanalyzed one must not, so golden plans stay byte-stable.
func TestExplainPlanEstimate(t *testing.T) {
	cat := seedCatalog(t)
	compiler := NewCompiler(cat, testPlannerConfig(), log.Default())

	fanout := &Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{categoryIn("espresso", "filter", "pour-over", "cold-brew")},
	}

	plan, err := compiler.Compile(fanout)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if out := ExplainPlan(plan); strings.Contains(out, "documents)") {
		t.Fatalf("unanalyzed collection shows an estimate:\n%s", out)
	}

	err = cat.UpdateCollectionStats("docs", "products", &catalog.CollectionStats{
		DocumentCount: 100,
		LastAnalyzed:  time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateCollectionStats failed: %v", err)
	}

	tests := []struct {
		name string
		stmt *Statement
		want string
	}{
		// Four 10% branches OR'd by inclusion-exclusion: 34.39%.
		{"fanout", fanout, "(~34 of 100 documents)"},
		{
			name: "unique equality",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&Equality{FieldPath: "sku", Value: types.NewValue("A-7")},
				},
			},
			want: "(~1 of 100 documents)",
		},
		{
			name: "seqscan",
			stmt: &Statement{
				Database:   "docs",
				Collection: "products",
				Predicates: []Predicate{
					&Equality{FieldPath: "color", Value: types.NewValue("red")},
				},
			},
			want: "(~100 of 100 documents)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := compiler.Compile(tt.stmt)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if out := ExplainPlan(plan); !strings.Contains(out, tt.want) {
				t.Errorf("estimate %s missing:\n%s", tt.want, out)
			}
		})
	}
}

func TestExplainLookup(t *testing.T) {
	compiler := newTestCompiler(t)
	pred := &Equality{FieldPath: "sku", Value: types.NewValue("A-7")}

	inner, err := compiler.Compile(&Statement{
		Database:   "docs",
		Collection: "products",
		Predicates: []Predicate{pred},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	join, err := compiler.CompileLookup(inner, "order.sku", "sku", []Predicate{pred})
	if err != nil {
		t.Fatalf("CompileLookup failed: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "explain_lookup", []byte(ExplainLookup(join)))
}
