package planner

import (
	"fmt"
	"strings"

	"github.com/chilagrow/documentdb/internal/query/types"
)

// Predicate is one filter condition supplied by the query compiler.
// Predicates are immutable once constructed; within one statement compile
// the engine keys its probe memo on predicate identity, so callers must
// pass the same *Predicate value to both rewrite call sites.
type Predicate interface {
	// Kind returns the predicate's tagged kind.
	Kind() PredicateKind
	// Path returns the document path the predicate constrains, or ""
	// for predicates that are not bound to a single path.
	Path() types.Path
	// String returns a string representation for debugging.
	String() string
}

// PredicateKind identifies the variant of a predicate.
type PredicateKind int

const (
	KindEquality PredicateKind = iota
	KindInList
	KindTextSearch
	KindVectorSearch
	KindPrimaryKey
	KindOpaque
)

func (k PredicateKind) String() string {
	switch k {
	case KindEquality:
		return "EQUALITY"
	case KindInList:
		return "IN_LIST"
	case KindTextSearch:
		return "TEXT_SEARCH"
	case KindVectorSearch:
		return "VECTOR_SEARCH"
	case KindPrimaryKey:
		return "PRIMARY_KEY"
	case KindOpaque:
		return "OPAQUE"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Equality matches documents whose value at FieldPath equals Value.
type Equality struct {
	FieldPath types.Path
	Value     types.Value
}

func (p *Equality) Kind() PredicateKind { return KindEquality }
func (p *Equality) Path() types.Path    { return p.FieldPath }

func (p *Equality) String() string {
	return fmt.Sprintf("%s = %s", p.FieldPath, p.Value)
}

// InList matches documents whose value at FieldPath equals any of Values.
type InList struct {
	FieldPath types.Path
	Values    []types.Value
}

func (p *InList) Kind() PredicateKind { return KindInList }
func (p *InList) Path() types.Path    { return p.FieldPath }

func (p *InList) String() string {
	if len(p.Values) > 4 {
		return fmt.Sprintf("%s IN (%d values)", p.FieldPath, len(p.Values))
	}
	parts := make([]string, len(p.Values))
	for i, v := range p.Values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s IN (%s)", p.FieldPath, strings.Join(parts, ", "))
}

// TextSearch matches documents against a text index. Spec is the raw
// search specification, e.g. {"$search": "coffee", "$language": "english"};
// it is parsed at most once per statement by the descriptor cache.
type TextSearch struct {
	Spec string
}

func (p *TextSearch) Kind() PredicateKind { return KindTextSearch }
func (p *TextSearch) Path() types.Path    { return "" }

func (p *TextSearch) String() string {
	return fmt.Sprintf("$text(%s)", p.Spec)
}

// VectorSearch matches the k nearest neighbors of a query vector at
// FieldPath. Exact requests exact top-K semantics, which are answered by
// a full runtime evaluation rather than an index lookup.
type VectorSearch struct {
	FieldPath types.Path
	Spec      string
	Exact     bool
}

func (p *VectorSearch) Kind() PredicateKind { return KindVectorSearch }
func (p *VectorSearch) Path() types.Path    { return p.FieldPath }

func (p *VectorSearch) String() string {
	if p.Exact {
		return fmt.Sprintf("$vectorSearch(%s, exact)", p.FieldPath)
	}
	return fmt.Sprintf("$vectorSearch(%s)", p.FieldPath)
}

// PrimaryKeyLookup matches the single document whose primary key equals
// Value.
type PrimaryKeyLookup struct {
	FieldPath types.Path
	Value     types.Value
}

func (p *PrimaryKeyLookup) Kind() PredicateKind { return KindPrimaryKey }
func (p *PrimaryKeyLookup) Path() types.Path    { return p.FieldPath }

func (p *PrimaryKeyLookup) String() string {
	return fmt.Sprintf("%s = %s", p.FieldPath, p.Value)
}

// Opaque is a filter expression the engine cannot push into an index.
// It always stays in the relation's base filter list.
type Opaque struct {
	Expr string
}

func (p *Opaque) Kind() PredicateKind { return KindOpaque }
func (p *Opaque) Path() types.Path    { return "" }

func (p *Opaque) String() string {
	return fmt.Sprintf("$expr(%s)", p.Expr)
}

// FilterMode tells the executor how a restriction predicate must be
// handled after an access path has produced candidate documents.
type FilterMode int

const (
	// FilterRuntime evaluates the predicate against every candidate row.
	FilterRuntime FilterMode = iota
	// FilterRecheck re-evaluates a predicate whose index answer is a
	// superset of the true matches.
	FilterRecheck
	// FilterTrusted skips evaluation: the index answered exactly.
	FilterTrusted
)

func (m FilterMode) String() string {
	switch m {
	case FilterRuntime:
		return "runtime"
	case FilterRecheck:
		return "recheck"
	case FilterTrusted:
		return "trusted"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Restriction is a predicate annotated with its execution-time handling.
// The predicate itself is unchanged in logical meaning.
type Restriction struct {
	Pred Predicate
	Mode FilterMode
}

func (r Restriction) String() string {
	return fmt.Sprintf("[%s] %s", r.Mode, r.Pred)
}
