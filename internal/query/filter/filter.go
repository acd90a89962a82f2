// Package filter compiles MongoDB-style filter documents into the
// ordered predicate list the query planner consumes. It covers the match
// expression subset the rewrite engine understands; aggregation
// pipelines are compiled elsewhere. Operators the engine cannot push
// into an index compile to opaque predicates and run at execution time —
// an exotic operator never fails the compile, an unknown one does.
package filter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/chilagrow/documentdb/internal/errors"
	"github.com/chilagrow/documentdb/internal/query/planner"
	"github.com/chilagrow/documentdb/internal/query/types"
)

// comparison operators the runtime evaluates directly, with their
// rendered spellings.
var comparisonOps = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
	"$ne":  "!=",
}

// runtimeOps are field operators with no index form; they pass through
// verbatim as opaque predicates.
var runtimeOps = map[string]bool{
	"$exists":    true,
	"$regex":     true,
	"$elemMatch": true,
	"$size":      true,
	"$all":       true,
	"$type":      true,
	"$mod":       true,
}

// Compile parses a filter document such as
//
//	{"status": "A", "qty": {"$in": [20, 40]}, "$text": {"$search": "coffee"}}
//
// into predicates in document order. The top-level list is conjunctive;
// $and clauses flatten into it. An equality on primaryKeyPath becomes a
// primary-key lookup.
func Compile(raw string, primaryKeyPath types.Path) ([]planner.Predicate, error) {
	if primaryKeyPath == "" {
		primaryKeyPath = "_id"
	}
	if !gjson.Valid(raw) {
		return nil, errors.FilterParseError("not valid JSON")
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, errors.FilterParseError(fmt.Sprintf("expected an object, got %s", root.Type))
	}
	return compileObject(root, primaryKeyPath)
}

func compileObject(root gjson.Result, pk types.Path) ([]planner.Predicate, error) {
	var preds []planner.Predicate
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		var next []planner.Predicate
		if strings.HasPrefix(key.String(), "$") {
			next, err = compileOperator(key.String(), value, pk)
		} else {
			next, err = compileField(types.Path(key.String()), value, pk)
		}
		preds = append(preds, next...)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

func compileOperator(op string, value gjson.Result, pk types.Path) ([]planner.Predicate, error) {
	switch op {
	case "$text":
		if !value.IsObject() {
			return nil, errors.InvalidOperandError("$text", "requires an object")
		}
		return []planner.Predicate{&planner.TextSearch{Spec: value.Raw}}, nil

	case "$vectorSearch":
		return compileVectorSearch(value)

	case "$and":
		if !value.IsArray() {
			return nil, errors.InvalidOperandError("$and", "requires an array")
		}
		var preds []planner.Predicate
		for _, elem := range value.Array() {
			if !elem.IsObject() {
				return nil, errors.InvalidOperandError("$and", "every element must be an object")
			}
			sub, err := compileObject(elem, pk)
			if err != nil {
				return nil, err
			}
			preds = append(preds, sub...)
		}
		return preds, nil

	case "$or", "$nor", "$not":
		// Disjunctions and negations are runtime-only.
		return []planner.Predicate{&planner.Opaque{Expr: op + " " + value.Raw}}, nil

	case "$expr":
		return []planner.Predicate{&planner.Opaque{Expr: value.Raw}}, nil

	case "$comment":
		return nil, nil

	default:
		return nil, errors.UnsupportedOperatorError(op)
	}
}

// compileField handles one "path: condition" entry. A value object whose
// keys are operators is an operator block; any other value is a direct
// equality, including whole-document and array equality.
func compileField(path types.Path, value gjson.Result, pk types.Path) ([]planner.Predicate, error) {
	if value.IsObject() && hasOperatorKeys(value) {
		return compileFieldOperators(path, value, pk)
	}
	return []planner.Predicate{equalityPredicate(path, types.ValueFromJSON(value), pk)}, nil
}

func equalityPredicate(path types.Path, v types.Value, pk types.Path) planner.Predicate {
	if path == pk {
		return &planner.PrimaryKeyLookup{FieldPath: path, Value: v}
	}
	return &planner.Equality{FieldPath: path, Value: v}
}

func hasOperatorKeys(value gjson.Result) bool {
	found := false
	value.ForEach(func(key, _ gjson.Result) bool {
		if strings.HasPrefix(key.String(), "$") {
			found = true
			return false
		}
		return true
	})
	return found
}

func compileFieldOperators(path types.Path, ops gjson.Result, pk types.Path) ([]planner.Predicate, error) {
	var preds []planner.Predicate
	var err error
	ops.ForEach(func(key, value gjson.Result) bool {
		op := key.String()
		switch {
		case op == "$eq":
			preds = append(preds, equalityPredicate(path, types.ValueFromJSON(value), pk))
		case op == "$in":
			var pred planner.Predicate
			if pred, err = inListPredicate(path, value); err == nil {
				preds = append(preds, pred)
			}
		case comparisonOps[op] != "":
			preds = append(preds, &planner.Opaque{
				Expr: fmt.Sprintf("%s %s %s", path, comparisonOps[op], value.Raw),
			})
		case runtimeOps[op]:
			preds = append(preds, &planner.Opaque{
				Expr: fmt.Sprintf("%s %s %s", path, op, value.Raw),
			})
		default:
			err = errors.UnsupportedOperatorError(op)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// inListPredicate builds a $in predicate. Repeated list entries do not
// change the match set but would inflate the planner's fan-out decision,
// so they collapse here.
func inListPredicate(path types.Path, value gjson.Result) (planner.Predicate, error) {
	if !value.IsArray() {
		return nil, errors.InvalidOperandError("$in", "requires an array")
	}
	elems := value.Array()
	values := make([]types.Value, len(elems))
	for i, elem := range elems {
		values[i] = types.ValueFromJSON(elem)
	}
	values = lo.UniqBy(values, types.Value.String)
	return &planner.InList{FieldPath: path, Values: values}, nil
}

// compileVectorSearch builds a kNN predicate. Only the target path and
// the exactness flag are interpreted here; the query vector, limit and
// metric stay in the raw spec for the planner's descriptor cache, so a
// malformed spec degrades to an unserved probe instead of failing the
// compile.
func compileVectorSearch(value gjson.Result) ([]planner.Predicate, error) {
	if !value.IsObject() {
		return nil, errors.InvalidOperandError("$vectorSearch", "requires an object")
	}
	path := value.Get("path")
	if !path.Exists() || path.Type != gjson.String || path.String() == "" {
		return nil, errors.MissingSearchFieldError("vector", "path")
	}
	return []planner.Predicate{&planner.VectorSearch{
		FieldPath: types.Path(path.String()),
		Spec:      value.Raw,
		Exact:     value.Get("exact").Bool(),
	}}, nil
}
