package executor

import (
	"fmt"
	"strings"

	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// FilterOperator applies the plan's restrictions to candidate
// documents. Trusted predicates were answered exactly by an index scan
// and are skipped; recheck and runtime predicates are evaluated against
// every candidate, preserving the statement's conjunctive semantics.
type FilterOperator struct {
	baseOperator
	child        Operator
	restrictions []planner.Restriction
}

// NewFilterOperator creates a filter over a candidate stream.
func NewFilterOperator(child Operator, restrictions []planner.Restriction) *FilterOperator {
	return &FilterOperator{child: child, restrictions: restrictions}
}

// Open opens the child.
func (op *FilterOperator) Open(ctx *ExecContext) error {
	op.ctx = ctx
	return op.child.Open(ctx)
}

// Next returns the next candidate that satisfies every evaluated
// restriction.
func (op *FilterOperator) Next() (*Candidate, error) {
	for {
		cand, err := op.child.Next()
		if err != nil {
			return nil, err
		}
		if cand == nil {
			return nil, nil //nolint:nilnil // EOF - standard iterator pattern
		}

		ok, err := op.admits(cand.Doc)
		if err != nil {
			return nil, err
		}
		if ok {
			return cand, nil
		}
	}
}

// Close closes the child.
func (op *FilterOperator) Close() error {
	return op.child.Close()
}

func (op *FilterOperator) admits(doc types.Document) (bool, error) {
	for _, r := range op.restrictions {
		if r.Mode == planner.FilterTrusted {
			continue
		}
		op.ctx.Stats.Rechecks++
		ok, err := evalPredicate(doc, r.Pred, op.ctx.Descriptors)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalPredicate evaluates one predicate against a document. Vector
// predicates reduce to a shape check here: membership in the top-k set
// is decided by the scan for index-served searches and by a trailing
// top-k pass for runtime ones. Opaque expressions belong to the outer
// query engine's filter machinery and pass through.
func evalPredicate(doc types.Document, pred planner.Predicate, descriptors *planner.DescriptorCache) (bool, error) {
	switch p := pred.(type) {
	case *planner.Equality:
		return evalEquality(doc, p.FieldPath, p.Value), nil
	case *planner.PrimaryKeyLookup:
		return evalEquality(doc, p.FieldPath, p.Value), nil
	case *planner.InList:
		for _, v := range p.Values {
			if evalEquality(doc, p.FieldPath, v) {
				return true, nil
			}
		}
		return false, nil
	case *planner.TextSearch:
		desc, err := descriptors.For(p)
		if err != nil {
			return false, errors.RecheckError("$text", err)
		}
		return textMatches(documentStrings(doc), desc.Terms), nil
	case *planner.VectorSearch:
		desc, err := descriptors.For(p)
		if err != nil {
			return false, errors.RecheckError(string(p.FieldPath), err)
		}
		vec, ok := vectorAt(doc, p.FieldPath)
		return ok && len(vec) == len(desc.Vector), nil
	case *planner.Opaque:
		return true, nil
	default:
		return false, errors.PlanStateError(fmt.Sprintf("predicate kind %s has no runtime evaluation", pred.Kind()))
	}
}

// evalEquality applies document equality at a path. A missing path
// matches only an explicit null; a document value that is an array
// matches when any element equals the key.
func evalEquality(doc types.Document, path types.Path, want types.Value) bool {
	val, ok := doc.Lookup(path)
	if !ok {
		return want.IsNull()
	}
	return valueMatches(val, want)
}

func valueMatches(val, want types.Value) bool {
	if val.Equal(want) {
		return true
	}
	arr, err := val.AsArray()
	if err != nil {
		return false
	}
	for _, elem := range arr {
		if elem.Equal(want) {
			return true
		}
	}
	return false
}

// textMatches reports whether any search term occurs in any of the
// given strings. Terms are OR'd, so one hit is enough; substring
// matching stands in for stemmed lexeme matching.
func textMatches(texts []string, terms []string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, term := range terms {
			if strings.Contains(lower, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}

// documentStrings collects every string value in the document,
// including values nested in arrays and subdocuments. The runtime text
// evaluation has no index telling it which paths to search.
func documentStrings(doc types.Document) []string {
	var out []string
	for _, f := range doc.Fields {
		out = append(out, valueStrings(f.Value)...)
	}
	return out
}

func valueStrings(v types.Value) []string {
	switch data := v.Data.(type) {
	case string:
		return []string{data}
	case []types.Value:
		var out []string
		for _, elem := range data {
			out = append(out, valueStrings(elem)...)
		}
		return out
	case types.Document:
		return documentStrings(data)
	default:
		return nil
	}
}
